package service

import (
	"github.com/google/uuid"
)

// Схема ключей кэша сессий (формат унаследован от первой версии сервиса):
//
//	{subject}:login:{fingerprint}  -> активный refresh-токен устройства,
//	                                  TTL = время жизни refresh-токена;
//	{subject}:logout:{fingerprint} -> забаненный access-токен устройства,
//	                                  TTL = остаток жизни access-токена;
//	{subject}:logout:_all_         -> unix-метка глобального выхода,
//	                                  TTL = время жизни access-токена.
//
// Fingerprint — идентификатор устройства со стороны клиента (User-Agent);
// используется как есть, Redis допускает произвольные байты в ключе.
const logoutAllMark = "_all_"

func loginKey(subject uuid.UUID, fingerprint string) string {
	return subject.String() + ":login:" + fingerprint
}

func loginKeyPattern(subject uuid.UUID) string {
	return subject.String() + ":login:*"
}

func logoutKey(subject uuid.UUID, fingerprint string) string {
	return subject.String() + ":logout:" + fingerprint
}

func logoutAllKey(subject uuid.UUID) string {
	return subject.String() + ":logout:" + logoutAllMark
}

// seed наполняет БД данными для локальной разработки: базовый набор
// ролей и демо-пользователь. Идемпотентен: конфликты уникальности
// (повторный запуск) пропускаются, а не считаются ошибкой.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-online-cinema/auth-service/internal/config"
)

const (
	demoLogin    = "demo"
	demoEmail    = "demo@example.com"
	demoPassword = "Demo1234!"
)

// Базовые роли кинотеатра; admin дополнительно открывает доступ
// к чужой истории входов.
var roles = map[string]string{
	"admin":      "полный доступ, включая историю входов других пользователей",
	"subscriber": "активная подписка",
	"guest":      "без подписки, только бесплатный контент",
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DB.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	roleIDs := make(map[string]uuid.UUID, len(roles))
	for title, descr := range roles {
		id := uuid.New()
		_, err := pool.Exec(ctx,
			`INSERT INTO roles (id, title, description) VALUES ($1, $2, $3)`,
			id, title, descr,
		)
		switch {
		case err == nil:
			roleIDs[title] = id
		case isUniqueViolation(err):
			// Роль уже есть — берём её id.
			var existing uuid.UUID
			if err := pool.QueryRow(ctx,
				`SELECT id FROM roles WHERE title = $1`, title,
			).Scan(&existing); err != nil {
				log.Fatalf("role %q lookup: %v", title, err)
			}
			roleIDs[title] = existing
		default:
			log.Fatalf("role %q: %v", title, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	userID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, login, email, password_hash) VALUES ($1, $2, $3, $4)`,
		userID, demoLogin, demoEmail, string(hash),
	)
	switch {
	case err == nil:
	case isUniqueViolation(err):
		log.Println("seed already applied (demo user exists), skipping")
		return
	default:
		log.Fatalf("create demo user: %v", err)
	}

	for _, title := range []string{"admin", "subscriber"} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
			userID, roleIDs[title],
		); err != nil && !isUniqueViolation(err) {
			log.Fatalf("grant role %q: %v", title, err)
		}
	}

	log.Println("seed completed")
	fmt.Printf("demo login: %s / %s\n", demoLogin, demoPassword)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

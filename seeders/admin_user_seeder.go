package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"device-manager/pkg/config"
	"device-manager/pkg/constants"
)

// SeedAdmin создаёт стартового администратора из конфигурации.
// Если пользователь с таким email уже существует, ничего не делает.
func SeedAdmin(db *pgxpool.Pool, cfg *config.Config) {
	log.Println("  - Создание стартового администратора...")
	ctx := context.Background()

	var existingID uint64
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE LOWER(email) = LOWER($1)", cfg.Bootstrap.AdminEmail).Scan(&existingID)
	if err == nil {
		log.Println("    - Администратор уже существует. Пропускаем.")
		return
	}
	if err != pgx.ErrNoRows {
		log.Fatalf("ошибка проверки существования администратора: %v", err)
	}

	var roleID uint64
	if err := db.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", constants.RoleAdmin).Scan(&roleID); err != nil {
		log.Fatalf("не найдена роль %q, сначала запустите сидер ролей: %v", constants.RoleAdmin, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Bootstrap.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("не удалось захешировать пароль администратора: %v", err)
	}

	if _, err := db.Exec(ctx,
		"INSERT INTO users (email, full_name, password_hash, role_id) VALUES ($1, $2, $3, $4)",
		cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminFullName, string(hash), roleID); err != nil {
		log.Fatalf("не удалось создать администратора: %v", err)
	}

	log.Println("    ✅ Администратор создан:", cfg.Bootstrap.AdminEmail)
}

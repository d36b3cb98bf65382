package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"device-manager/pkg/constants"
)

// SeedRoles создаёт четыре фиксированные роли системы. Повторный запуск
// безопасен.
func SeedRoles(db *pgxpool.Pool) {
	log.Println("  - Наполнение таблицы 'roles'...")
	ctx := context.Background()

	roles := []string{
		constants.RoleAdmin,
		constants.RoleManager,
		constants.RoleTechnician,
		constants.RoleViewer,
	}

	for _, name := range roles {
		if _, err := db.Exec(ctx,
			"INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name); err != nil {
			log.Fatalf("не удалось создать роль %q: %v", name, err)
		}
	}

	log.Println("    ✅ Роли созданы.")
}

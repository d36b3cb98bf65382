package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedDeviceTypes наполняет справочник типов устройств.
func SeedDeviceTypes(db *pgxpool.Pool) {
	log.Println("  - Наполнение таблицы 'device_types'...")
	ctx := context.Background()

	types := []string{"Laptop", "Desktop", "Tablet", "Smartphone"}

	for _, name := range types {
		if _, err := db.Exec(ctx,
			"INSERT INTO device_types (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name); err != nil {
			log.Fatalf("не удалось создать тип устройства %q: %v", name, err)
		}
	}

	log.Println("    ✅ Типы устройств созданы.")
}

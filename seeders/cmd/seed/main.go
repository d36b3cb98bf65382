package main

import (
	"flag"
	"log"

	"device-manager/pkg/config"
	"device-manager/pkg/database/postgresql"
	"device-manager/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 Наполнение базы данных                      ")
	log.Println("======================================================")

	runCore := flag.Bool("core", false, "Создать роли и справочник типов устройств")
	runAdmin := flag.Bool("admin", false, "Создать стартового администратора")
	runAll := flag.Bool("all", false, "Запустить все сидеры")

	flag.Parse()

	if !*runCore && !*runAdmin && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -core")
		log.Println("  go run ./seeders/cmd/seed -all")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	if *runAll || *runCore {
		seeders.SeedRoles(dbPool)
		seeders.SeedDeviceTypes(dbPool)
	}

	if *runAll || *runAdmin {
		// администратор зависит от ролей
		seeders.SeedAdmin(dbPool, cfg)
	}

	log.Println("✅ Сидирование завершено.")
}

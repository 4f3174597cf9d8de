package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		Charset  string `yaml:"charset"`
	} `yaml:"database"`
}

// 删除顺序满足外键依赖：先从属表后用户表
var tables = []string{"message", "token", "public_key", "user_address", "address", "user"}

func main() {
	// Load configuration
	config := loadConfig()

	// Build DSN
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		config.Database.Username,
		config.Database.Password,
		config.Database.Host,
		config.Database.Port,
		config.Database.Database,
		config.Database.Charset,
	)

	// Connect DB
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Database connection test failed: %v", err)
	}

	fmt.Println("Database connected successfully")
	fmt.Printf("Database: %s\n", config.Database.Database)

	// Confirm
	fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v!\n", tables)
	fmt.Print("Type 'YES' to confirm: ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "YES" {
		fmt.Println("Operation cancelled")
		return
	}

	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM `" + table + "`"); err != nil {
			log.Fatalf("Clearing table %s failed: %v", table, err)
		}
		fmt.Printf("Table %s cleared\n", table)
	}

	fmt.Println("All tables cleared")
}

func loadConfig() *Config {
	config := &Config{}
	config.Database.Host = "localhost"
	config.Database.Port = 3306
	config.Database.Username = "im_user"
	config.Database.Password = "im_password"
	config.Database.Database = "im_delivery"
	config.Database.Charset = "utf8mb4"

	data, err := os.ReadFile("config/config.yaml")
	if err != nil {
		return config
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		log.Fatalf("Config parse failed: %v", err)
	}
	return config
}

package models

// All returns every record type in foreign-key dependency order, ready to be
// passed to AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Trip{},
		&Item{},
		&Order{},
		&OrderItem{},
		&DriverApplication{},
	}
}

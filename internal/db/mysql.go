package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"schools24/internal/model"
)

// Models lists every table the service owns, parents first.
var Models = []interface{}{
	&model.School{},
	&model.User{},
	&model.TeacherClass{},
	&model.TeacherSubject{},
	&model.Subject{},
	&model.Class{},
	&model.ClassSubjectTeacher{},
	&model.ClassStudent{},
	&model.FeeHead{},
	&model.FeeInvoice{},
	&model.FeeInvoiceItem{},
	&model.FeePayment{},
}

// NewMySQL returns a connected GORM DB instance.
// Driver errors are translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema. With reset the tables are dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	if reset {
		if err := db.Migrator().DropTable(Models...); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

package for009

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

// ConnectToDatabase opens the run conditions database. With the sqlite driver dbname
// is the path of the database file and the other arguments are ignored.
func ConnectToDatabase(driver string, user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	switch driver {
	case "mysql":
		port := "3306"
		dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
		return sqlx.Connect("mysql", dbURI)
	case "sqlite":
		return sqlx.Connect("sqlite", dbname)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

type PIDCutsEntry struct {
	TofMin      float64 `db:"TofMin"`
	TofMax      float64 `db:"TofMax"`
	PlaneNumber int     `db:"PlaneNumber"`
	MomentumMin float64 `db:"MomentumMin"`
	MomentumMax float64 `db:"MomentumMax"`
}

// GetCutsFromDB returns the cuts valid for runNumber. When several ranges contain the
// run, the one with the highest MinRun wins.
func GetCutsFromDB(db *sqlx.DB, runNumber int) (Cuts, error) {
	query := "SELECT TofMin, TofMax, PlaneNumber, MomentumMin, MomentumMax FROM PIDCuts " +
		"WHERE MinRun <= ? and MaxRun >= ? ORDER BY MinRun DESC LIMIT 1"

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading PID cuts for run %d from database", runNumber), "database")
	}
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return Cuts{}, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Cuts{}, fmt.Errorf("error querying database: %w", err)
		}
		return Cuts{}, fmt.Errorf("no PID cuts for run %d", runNumber)
	}
	result := PIDCutsEntry{}
	if err := rows.StructScan(&result); err != nil {
		return Cuts{}, fmt.Errorf("error scanning DB row: %w", err)
	}
	return Cuts{
		TofMin:      result.TofMin,
		TofMax:      result.TofMax,
		PlaneNumber: result.PlaneNumber,
		MomentumMin: result.MomentumMin,
		MomentumMax: result.MomentumMax,
	}, nil
}

// LoadCuts returns the cuts of the configuration, replaced by the database ones
// unless NoDB is set.
func LoadCuts(config Configuration) (Cuts, error) {
	if config.NoDB {
		return config.Cuts(), nil
	}
	dbConn, err := ConnectToDatabase(config.DBDriver, config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return Cuts{}, fmt.Errorf("error connecting to database: %w", err)
	}
	defer dbConn.Close()
	return GetCutsFromDB(dbConn, config.RunNumber)
}

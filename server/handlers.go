package server

import (
	"database/sql"

	"github.com/ekvall/camrelay/db"
	"github.com/ekvall/camrelay/homeassistant"
	"github.com/ekvall/camrelay/recorder"
)

// Handlers holds dependencies for all HTTP handlers. DB and Journal may be
// nil when the service runs without Postgres.
type Handlers struct {
	DB      *sql.DB
	Journal *db.Journal
	Camera  *homeassistant.Client
	Engine  *recorder.Engine
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(dbc *sql.DB, journal *db.Journal, cam *homeassistant.Client, eng *recorder.Engine) *Handlers {
	return &Handlers{
		DB:      dbc,
		Journal: journal,
		Camera:  cam,
		Engine:  eng,
	}
}

package postgres

import (
	"context"
	"fmt"

	"github.com/frontandrew/flighthub/internal/pkg/database"
)

// schema - таблицы справочников и рейсов. Все выражения идемпотентны.
const schema = `
CREATE TABLE IF NOT EXISTS aircrafts (
	id         UUID PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	iata       VARCHAR(3),
	icao       VARCHAR(4),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_aircrafts_key
	ON aircrafts (name, COALESCE(iata, ''), COALESCE(icao, ''));
CREATE INDEX IF NOT EXISTS idx_aircrafts_iata ON aircrafts (iata);
CREATE INDEX IF NOT EXISTS idx_aircrafts_icao ON aircrafts (icao);

CREATE TABLE IF NOT EXISTS airlines (
	id         UUID PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	iata       VARCHAR(2),
	icao       VARCHAR(3),
	callsign   VARCHAR(255),
	country    VARCHAR(255),
	is_active  BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_airlines_key
	ON airlines (name, COALESCE(iata, ''), COALESCE(icao, ''));
CREATE INDEX IF NOT EXISTS idx_airlines_iata ON airlines (iata);
CREATE INDEX IF NOT EXISTS idx_airlines_icao ON airlines (icao);

CREATE TABLE IF NOT EXISTS airports (
	id         UUID PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	iata       VARCHAR(3),
	icao       VARCHAR(4),
	city       VARCHAR(255),
	country    VARCHAR(255),
	latitude   DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude  DOUBLE PRECISION NOT NULL DEFAULT 0,
	utc_offset DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_airports_key
	ON airports (name, COALESCE(iata, ''), COALESCE(icao, ''));
CREATE INDEX IF NOT EXISTS idx_airports_iata ON airports (iata);
CREATE INDEX IF NOT EXISTS idx_airports_icao ON airports (icao);

CREATE TABLE IF NOT EXISTS flights (
	id                             UUID PRIMARY KEY,
	type                           VARCHAR(16) NOT NULL,
	aircraft_id                    UUID REFERENCES aircrafts (id) ON DELETE SET NULL,
	aircraft_reg                   VARCHAR(255),
	airline_id                     UUID REFERENCES airlines (id) ON DELETE SET NULL,
	departure_airport_id           UUID NOT NULL REFERENCES airports (id),
	departure_scheduled_time_local VARCHAR(64) NOT NULL,
	departure_scheduled_time_utc   VARCHAR(64) NOT NULL,
	departure_actual_time_local    VARCHAR(64) NOT NULL,
	departure_actual_time_utc      VARCHAR(64) NOT NULL,
	arrival_airport_id             UUID NOT NULL REFERENCES airports (id),
	arrival_scheduled_time_local   VARCHAR(64) NOT NULL,
	arrival_scheduled_time_utc     VARCHAR(64) NOT NULL,
	arrival_actual_time_local      VARCHAR(64) NOT NULL,
	arrival_actual_time_utc        VARCHAR(64) NOT NULL,
	distance_feet                  DOUBLE PRECISION NOT NULL,
	distance_km                    DOUBLE PRECISION NOT NULL,
	distance_meter                 DOUBLE PRECISION NOT NULL,
	distance_mile                  DOUBLE PRECISION NOT NULL,
	distance_nm                    DOUBLE PRECISION NOT NULL,
	number                         VARCHAR(255) NOT NULL,
	call_sign                      VARCHAR(255),
	status                         VARCHAR(32) NOT NULL,
	date_local                     DATE NOT NULL,
	created_at                     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_flights_general_number_date
	ON flights (number, date_local) WHERE type = 'general';

CREATE TABLE IF NOT EXISTS flight_tickets (
	flight_id    UUID NOT NULL REFERENCES flights (id) ON DELETE CASCADE,
	passenger_id UUID NOT NULL,
	seat         VARCHAR(10),
	note         VARCHAR(1000),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (flight_id, passenger_id)
);

CREATE INDEX IF NOT EXISTS idx_flight_tickets_passenger ON flight_tickets (passenger_id);
`

// ApplySchema создает таблицы и индексы, если их еще нет
func ApplySchema(ctx context.Context, db database.DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

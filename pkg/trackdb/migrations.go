package trackdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE sequence(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			nframes INT NOT NULL
		);

		CREATE TABLE frame(
			id INTEGER PRIMARY KEY,
			frame INT NOT NULL,
			video_id INT NOT NULL,
			camera TEXT,
			lines TEXT
		);
		CREATE INDEX idx_frame_video ON frame (video_id);

		CREATE TABLE detection(
			id INTEGER PRIMARY KEY,
			det_id INT NOT NULL,
			source INT NOT NULL,
			image_id INT NOT NULL,
			track_id INT,
			person_id INT,
			category_id INT,
			conf REAL,
			geometry TEXT,
			role TEXT,
			team TEXT,
			jersey INT
		);
		CREATE INDEX idx_detection_image ON detection (image_id);
		CREATE INDEX idx_detection_source ON detection (source);
	`))

	return migs
}

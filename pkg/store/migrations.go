package store

import "fmt"

// Migration is one schema step. Statements are written per driver because
// the auto-increment and timestamp dialects differ.
type Migration struct {
	Description string
	SQLite      string
	Postgres    string
}

func migrations() []Migration {
	return []Migration{
		{
			Description: "create user partition tables",
			SQLite: `
				CREATE TABLE IF NOT EXISTS students (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					email TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					first_name TEXT NOT NULL DEFAULT '',
					last_name TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE TABLE IF NOT EXISTS instructors (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					email TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					first_name TEXT NOT NULL DEFAULT '',
					last_name TEXT NOT NULL DEFAULT '',
					department TEXT NOT NULL DEFAULT '',
					bio TEXT NOT NULL DEFAULT '',
					specialization TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE TABLE IF NOT EXISTS admins (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					email TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					first_name TEXT NOT NULL DEFAULT '',
					last_name TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
			Postgres: `
				CREATE TABLE IF NOT EXISTS students (
					id SERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL UNIQUE,
					email VARCHAR(100) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					first_name VARCHAR(50) NOT NULL DEFAULT '',
					last_name VARCHAR(50) NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
				CREATE TABLE IF NOT EXISTS instructors (
					id SERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL UNIQUE,
					email VARCHAR(100) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					first_name VARCHAR(50) NOT NULL DEFAULT '',
					last_name VARCHAR(50) NOT NULL DEFAULT '',
					department VARCHAR(100) NOT NULL DEFAULT '',
					bio TEXT NOT NULL DEFAULT '',
					specialization VARCHAR(100) NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
				CREATE TABLE IF NOT EXISTS admins (
					id SERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL UNIQUE,
					email VARCHAR(100) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					first_name VARCHAR(50) NOT NULL DEFAULT '',
					last_name VARCHAR(50) NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Description: "create courses table",
			SQLite: `
				CREATE TABLE IF NOT EXISTS courses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					duration_weeks INTEGER NOT NULL DEFAULT 0,
					max_students INTEGER NOT NULL DEFAULT 50,
					instructor_id INTEGER NOT NULL REFERENCES instructors(id),
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE INDEX IF NOT EXISTS idx_courses_instructor_id ON courses(instructor_id);
			`,
			Postgres: `
				CREATE TABLE IF NOT EXISTS courses (
					id SERIAL PRIMARY KEY,
					title VARCHAR(200) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					duration_weeks INTEGER NOT NULL DEFAULT 0,
					max_students INTEGER NOT NULL DEFAULT 50,
					instructor_id INTEGER NOT NULL REFERENCES instructors(id),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_courses_instructor_id ON courses(instructor_id);
			`,
		},
		{
			Description: "create enrollments table",
			SQLite: `
				CREATE TABLE IF NOT EXISTS enrollments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					student_id INTEGER NOT NULL REFERENCES students(id),
					course_id INTEGER NOT NULL REFERENCES courses(id),
					status TEXT NOT NULL DEFAULT 'ACTIVE',
					enrolled_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(student_id, course_id)
				);
				CREATE INDEX IF NOT EXISTS idx_enrollments_course_id ON enrollments(course_id);
			`,
			Postgres: `
				CREATE TABLE IF NOT EXISTS enrollments (
					id SERIAL PRIMARY KEY,
					student_id INTEGER NOT NULL REFERENCES students(id),
					course_id INTEGER NOT NULL REFERENCES courses(id),
					status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
					enrolled_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(student_id, course_id)
				);
				CREATE INDEX IF NOT EXISTS idx_enrollments_course_id ON enrollments(course_id);
			`,
		},
		{
			Description: "create lessons table",
			SQLite: `
				CREATE TABLE IF NOT EXISTS lessons (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					course_id INTEGER NOT NULL REFERENCES courses(id),
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					lesson_order INTEGER NOT NULL DEFAULT 0,
					otp TEXT,
					otp_expires_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE INDEX IF NOT EXISTS idx_lessons_course_id ON lessons(course_id);
			`,
			Postgres: `
				CREATE TABLE IF NOT EXISTS lessons (
					id SERIAL PRIMARY KEY,
					course_id INTEGER NOT NULL REFERENCES courses(id),
					title VARCHAR(200) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					lesson_order INTEGER NOT NULL DEFAULT 0,
					otp VARCHAR(6),
					otp_expires_at TIMESTAMP,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_lessons_course_id ON lessons(course_id);
			`,
		},
	}
}

func (d *DB) migrate() error {
	for _, m := range migrations() {
		stmt := m.SQLite
		if d.driver == DriverPostgres {
			stmt = m.Postgres
		}
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("migration %q: %w", m.Description, err)
		}
	}
	return nil
}

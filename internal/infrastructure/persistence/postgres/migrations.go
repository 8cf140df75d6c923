// Package postgres implements the PostgreSQL persistence layer.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_learners",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_catalog",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_completions",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_notifications",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
		{
			Version: 5,
			Name:    "create_communities",
			UpSQL:   migration005Up,
			DownSQL: migration005Down,
		},
	}
}

const migration001Up = `
CREATE TABLE learner_profiles (
	user_id               UUID PRIMARY KEY,
	username              TEXT NOT NULL UNIQUE,
	email                 TEXT NOT NULL UNIQUE,
	selected_language_id  UUID,
	proficiency           TEXT NOT NULL DEFAULT 'beginner',
	xp                    INTEGER NOT NULL DEFAULT 0,
	hearts                INTEGER NOT NULL DEFAULT 5,
	gems                  INTEGER NOT NULL DEFAULT 0,
	daily_goal_target     INTEGER NOT NULL DEFAULT 5,
	daily_goal_completed  INTEGER NOT NULL DEFAULT 0,
	current_streak        INTEGER NOT NULL DEFAULT 0,
	best_streak           INTEGER NOT NULL DEFAULT 0,
	last_activity_date    DATE,
	last_streak_date      DATE,
	daily_reminder        BOOLEAN NOT NULL DEFAULT TRUE,
	reminder_time         TEXT NOT NULL DEFAULT '19:00',
	created_at            TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE learner_credentials (
	user_id       UUID PRIMARY KEY REFERENCES learner_profiles(user_id) ON DELETE CASCADE,
	email         TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS learner_credentials;
DROP TABLE IF EXISTS learner_profiles;
`

const migration002Up = `
CREATE TABLE languages (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	code       TEXT NOT NULL UNIQUE,
	flag       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE units (
	id          UUID PRIMARY KEY,
	language_id UUID NOT NULL REFERENCES languages(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	icon        TEXT NOT NULL DEFAULT '',
	proficiency TEXT NOT NULL DEFAULT 'beginner',
	created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_units_language ON units(language_id, sort_order);

CREATE TABLE lessons (
	id              UUID PRIMARY KEY,
	unit_id         UUID NOT NULL REFERENCES units(id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	lesson_type     TEXT NOT NULL,
	sort_order      INTEGER NOT NULL DEFAULT 0,
	xp_reward       INTEGER NOT NULL DEFAULT 10,
	prerequisite_id UUID REFERENCES lessons(id),
	created_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_lessons_unit ON lessons(unit_id, sort_order);

CREATE TABLE exercises (
	id            UUID PRIMARY KEY,
	lesson_id     UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
	exercise_type TEXT NOT NULL,
	word          TEXT NOT NULL,
	translation   TEXT NOT NULL,
	sort_order    INTEGER NOT NULL DEFAULT 0,
	xp_reward     INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_exercises_lesson ON exercises(lesson_id, sort_order);
`

const migration002Down = `
DROP TABLE IF EXISTS exercises;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS units;
DROP TABLE IF EXISTS languages;
`

const migration003Up = `
CREATE TABLE lesson_completions (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL REFERENCES learner_profiles(user_id) ON DELETE CASCADE,
	lesson_id    UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
	xp_earned    INTEGER NOT NULL,
	completed_on DATE NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
	CONSTRAINT uq_completion_per_day UNIQUE (user_id, lesson_id, completed_on)
);

CREATE INDEX idx_completions_user ON lesson_completions(user_id, completed_at DESC);
CREATE INDEX idx_completions_period ON lesson_completions(completed_on);
`

const migration003Down = `
DROP TABLE IF EXISTS lesson_completions;
`

const migration004Up = `
CREATE TABLE notifications (
	id                UUID PRIMARY KEY,
	user_id           UUID NOT NULL REFERENCES learner_profiles(user_id) ON DELETE CASCADE,
	notification_type TEXT NOT NULL,
	title             TEXT NOT NULL DEFAULT '',
	message           TEXT NOT NULL,
	is_read           BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_notifications_user ON notifications(user_id, created_at DESC);
CREATE INDEX idx_notifications_unread ON notifications(user_id) WHERE NOT is_read;
`

const migration004Down = `
DROP TABLE IF EXISTS notifications;
`

const migration005Up = `
CREATE TABLE communities (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	language_id  UUID REFERENCES languages(id),
	member_count INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE community_members (
	community_id UUID NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
	user_id      UUID NOT NULL REFERENCES learner_profiles(user_id) ON DELETE CASCADE,
	joined_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (community_id, user_id)
);

CREATE TABLE community_posts (
	id           UUID PRIMARY KEY,
	community_id UUID NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
	author_id    UUID NOT NULL REFERENCES learner_profiles(user_id) ON DELETE CASCADE,
	content      TEXT NOT NULL,
	like_count   INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_posts_community ON community_posts(community_id, created_at DESC);

CREATE TABLE direct_messages (
	id           UUID PRIMARY KEY,
	sender_id    UUID NOT NULL REFERENCES learner_profiles(user_id) ON DELETE CASCADE,
	recipient_id UUID NOT NULL REFERENCES learner_profiles(user_id) ON DELETE CASCADE,
	content      TEXT NOT NULL,
	is_read      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_messages_pair ON direct_messages(sender_id, recipient_id, created_at DESC);
`

const migration005Down = `
DROP TABLE IF EXISTS direct_messages;
DROP TABLE IF EXISTS community_posts;
DROP TABLE IF EXISTS community_members;
DROP TABLE IF EXISTS communities;
`

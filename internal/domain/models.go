package domain

import "time"

// ReadingSpeed is the configured reading speed category of a game.
type ReadingSpeed int

const (
	ReadingSlow   ReadingSpeed = -1
	ReadingMedium ReadingSpeed = 0
	ReadingFast   ReadingSpeed = 1
)

// WordsPerMinute returns how many words a player is expected to read per minute.
func (r ReadingSpeed) WordsPerMinute() int {
	switch r {
	case ReadingSlow:
		return 100
	case ReadingFast:
		return 350
	default:
		return 220
	}
}

// TileHeight is the level tile height category.
type TileHeight int

const (
	TileHeightSmall  TileHeight = 0
	TileHeightMedium TileHeight = 1
	TileHeightLarge  TileHeight = 2
)

// Pixels maps the category to a tile height in pixels.
func (h TileHeight) Pixels() int {
	switch h {
	case TileHeightSmall:
		return 60
	case TileHeightLarge:
		return 200
	default:
		return 120
	}
}

// Game is one configured instance of the quiz activity.
type Game struct {
	ID                int64        `json:"id" yaml:"-"`
	TimeCreated       time.Time    `json:"timecreated" yaml:"-"`
	TimeModified      time.Time    `json:"timemodified" yaml:"-"`
	Course            int64        `json:"course" yaml:"course"`
	Name              string       `json:"name" yaml:"name" validate:"required,max=255"`
	QuestionDuration  int          `json:"question_duration" yaml:"question_duration" validate:"min=1,max=3600"`
	ReviewDuration    int          `json:"review_duration" yaml:"review_duration" validate:"min=0,max=3600"`
	ShuffleAnswers    bool         `json:"question_shuffle_answers" yaml:"question_shuffle_answers"`
	ReadingSpeed      ReadingSpeed `json:"question_reading_speed" yaml:"question_reading_speed" validate:"min=-1,max=1"`
	QuestionChances   int          `json:"question_chances" yaml:"question_chances" validate:"min=0"`
	HighscoreCount    int          `json:"highscore_count" yaml:"highscore_count" validate:"min=0"`
	HighscoreTeachers bool         `json:"highscore_teachers" yaml:"highscore_teachers"`
	CompletionRounds  int          `json:"completionrounds" yaml:"completionrounds" validate:"min=0"`
	CompletionPoints  int          `json:"completionpoints" yaml:"completionpoints" validate:"min=0"`
	ShuffleLevels     bool         `json:"shuffle_levels" yaml:"shuffle_levels"`
	LevelTileHeight   TileHeight   `json:"level_tile_height" yaml:"level_tile_height" validate:"min=0,max=2"`
	LevelTileAlpha    int          `json:"level_tile_alpha" yaml:"level_tile_alpha" validate:"min=0,max=100"`
}

// NewGame returns a game carrying the default settings.
func NewGame() Game {
	return Game{
		QuestionDuration: 30,
		ReviewDuration:   2,
		ShuffleAnswers:   true,
		ReadingSpeed:     ReadingMedium,
		HighscoreCount:   5,
		LevelTileHeight:  TileHeightMedium,
		LevelTileAlpha:   50,
	}
}

type LevelState string

const (
	LevelActive  LevelState = "active"
	LevelDeleted LevelState = "deleted"
)

// Level is one tile of a game, bound to question bank categories.
type Level struct {
	ID       int64      `json:"id"`
	Game     int64      `json:"game"`
	State    LevelState `json:"state"`
	Name     string     `json:"name"`
	Position int        `json:"position"`
	Image    string     `json:"image"`
	BgColor  string     `json:"bgcolor"`
}

// CategoryBinding links a level to a question bank category.
type CategoryBinding struct {
	ID            int64 `json:"id"`
	Level         int64 `json:"level"`
	MdlCategory   int64 `json:"mdl_category"`
	Subcategories bool  `json:"subcategories"`
}

type SessionState string

const (
	SessionProgress SessionState = "progress"
	SessionFinished SessionState = "finished"
	SessionDumped   SessionState = "dumped"
)

// GameSession is one play-through of one user.
type GameSession struct {
	ID             int64        `json:"id"`
	TimeCreated    time.Time    `json:"timecreated"`
	TimeModified   time.Time    `json:"timemodified"`
	Game           int64        `json:"game"`
	User           int64        `json:"mdl_user"`
	Score          int          `json:"score"`
	AnswersTotal   int          `json:"answers_total"`
	AnswersCorrect int          `json:"answers_correct"`
	State          SessionState `json:"state"`
	LevelsOrder    []int64      `json:"levels_order"`
}

// InProgress reports whether the session still accepts answers.
func (s GameSession) InProgress() bool {
	return s.State == SessionProgress
}

// HasLevel reports whether the level is part of the session's frozen order.
func (s GameSession) HasLevel(levelID int64) bool {
	for _, id := range s.LevelsOrder {
		if id == levelID {
			return true
		}
	}
	return false
}

// Question is one level's attempt within a session.
type Question struct {
	ID             int64     `json:"id"`
	TimeCreated    time.Time `json:"timecreated"`
	TimeModified   time.Time `json:"timemodified"`
	Session        int64     `json:"gamesession"`
	Level          int64     `json:"level"`
	MdlQuestion    int64     `json:"mdl_question"`
	AnswerOrder    []int64   `json:"mdl_answers_order"`
	Answer         int64     `json:"mdl_answer_given"`
	Score          int       `json:"score"`
	Correct        bool      `json:"correct"`
	Finished       bool      `json:"finished"`
	TimeRemaining  int       `json:"timeremaining"`
	ReadingSeconds int       `json:"reading_seconds"`
}

// Viewer identifies the platform user issuing a request.
type Viewer struct {
	UserID int64
	Name   string
}

// GameView is the game configuration as shown to a viewer.
type GameView struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	HighscoreCount    int    `json:"highscore_count"`
	HighscoreTeachers bool   `json:"highscore_teachers"`
	User              int64  `json:"mdl_user"`
	UserTeacher       bool   `json:"mdl_user_teacher"`
	QuestionDuration  int    `json:"question_duration"`
	ReviewDuration    int    `json:"review_duration"`
	WordsPerMinute    int    `json:"words_per_minute"`
	LevelTileHeightPx int    `json:"level_tile_height_px"`
	LevelTileAlpha    int    `json:"level_tile_alpha"`
}

// LevelView merges a level with the outcome of its attempt in a session.
type LevelView struct {
	Level
	ImageURL     string `json:"imageurl"`
	Seen         bool   `json:"seen"`
	Finished     bool   `json:"finished"`
	Correct      bool   `json:"correct"`
	Score        int    `json:"score"`
	TileHeightPx int    `json:"tile_height_px"`
}

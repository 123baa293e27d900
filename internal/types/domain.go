// Package types holds the value types shared across the retrieval and
// answering pipeline: rows persisted by the store, and the transient
// values passed between pipeline stages.
package types

import (
	"encoding/json"
	"strconv"
	"time"
)

// Message is an immutable chat message row, keyed by (ChatID, ID).
type Message struct {
	ChatID            int64     `gorm:"column:chat_id;primaryKey"`
	ID                int64     `gorm:"column:id;primaryKey"`
	FromUserID        int64     `gorm:"column:from_user_id"`
	Username          string    `gorm:"column:username"`
	DisplayName       string    `gorm:"column:display_name"`
	Text              string    `gorm:"column:text"`
	DateUTC           time.Time `gorm:"column:date_utc"`
	IsForwarded       bool      `gorm:"column:is_forwarded"`
	ForwardOriginType string    `gorm:"column:forward_origin_type"`
	ForwardFromName   string    `gorm:"column:forward_from_name"`
}

// TableName pins the GORM table name to the schema in SPEC_FULL.md §6.
func (Message) TableName() string { return "messages" }

// AuthorLabel returns the name used to prefix a message in embedding
// text and prompts: display name, falling back to username, falling
// back to the numeric id.
func (m *Message) AuthorLabel() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	if m.Username != "" {
		return m.Username
	}
	return strconv.FormatInt(m.FromUserID, 10)
}

// UtteranceMetadata is the JSON payload stored alongside each utterance
// embedding row.
type UtteranceMetadata struct {
	Username    string `json:"Username"`
	DisplayName string `json:"DisplayName"`
	FromUserID  int64  `json:"FromUserId"`
	DateUTC     time.Time `json:"DateUtc"`

	// Populated only when this row represents a batched span of
	// consecutive same-author messages (see embedstore batch grouping).
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	MessageCount int        `json:"message_count,omitempty"`
	MessageIDs   []int64    `json:"message_ids,omitempty"`
}

// UtteranceEmbedding is a dense-vector row over a message or a batched
// span of messages, unique on (ChatID, MessageID, ChunkIndex).
type UtteranceEmbedding struct {
	ChatID     int64     `gorm:"column:chat_id;primaryKey"`
	MessageID  int64     `gorm:"column:message_id;primaryKey"`
	ChunkIndex int32     `gorm:"column:chunk_index;primaryKey"`
	ChunkText  string    `gorm:"column:chunk_text"`
	Embedding  []float32 `gorm:"column:embedding;type:vector"`
	Metadata   json.RawMessage `gorm:"column:metadata;type:jsonb"`
	IsQuestion bool      `gorm:"column:is_question"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

// TableName pins the GORM table name.
func (UtteranceEmbedding) TableName() string { return "message_embeddings" }

// SlidingWindowEmbedding is a dense-vector row over a dialog-bounded
// run of messages, unique on (ChatID, CenterMessageID).
type SlidingWindowEmbedding struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ChatID          int64     `gorm:"column:chat_id"`
	CenterMessageID int64     `gorm:"column:center_message_id"`
	WindowStartID   int64     `gorm:"column:window_start_id"`
	WindowEndID     int64     `gorm:"column:window_end_id"`
	MessageIDs      []int64   `gorm:"column:message_ids;type:bigint[]"`
	ContextText     string    `gorm:"column:context_text"`
	Embedding       []float32 `gorm:"column:embedding;type:vector"`
	WindowSize      int32     `gorm:"column:window_size"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

// TableName pins the GORM table name.
func (SlidingWindowEmbedding) TableName() string { return "context_embeddings" }

// JobKind distinguishes the two queue tables' payload shape.
type JobKind string

const (
	JobKindAsk   JobKind = "ask"
	JobKindSmart JobKind = "smart"
	JobKindTruth JobKind = "truth"
)

// AskJob is a row in ask_queue; see spec.md §3 for the lifecycle.
type AskJob struct {
	ID                int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ChatID            int64      `gorm:"column:chat_id"`
	ReplyToMessageID  int64      `gorm:"column:reply_to_message_id"`
	Question          string     `gorm:"column:question"`
	Kind              JobKind    `gorm:"column:command"`
	AskerID           int64      `gorm:"column:asker_id"`
	AskerName         string     `gorm:"column:asker_name"`
	AskerUsername     string     `gorm:"column:asker_username"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	StartedAt         *time.Time `gorm:"column:started_at"`
	PickedAt          *time.Time `gorm:"column:picked_at"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	AttemptCount      int        `gorm:"column:attempt_count"`
	Processed         bool       `gorm:"column:processed"`
	Error             string     `gorm:"column:error"`
	IdempotencyKey    string     `gorm:"column:idempotency_key"`
}

// TableName pins the GORM table name.
func (AskJob) TableName() string { return "ask_queue" }

// AskIdempotencyKey builds the canonical idempotency key for an ask job.
func AskIdempotencyKey(chatID, replyToMessageID int64, kind JobKind) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(replyToMessageID, 10) + ":" + string(kind)
}

// TruthJob is a row in truth_queue, analogous to AskJob but keyed by a
// requested message count instead of a reply-to message.
type TruthJob struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ChatID         int64      `gorm:"column:chat_id"`
	MessageCount   int        `gorm:"column:message_count"`
	AskerID        int64      `gorm:"column:asker_id"`
	AskerName      string     `gorm:"column:asker_name"`
	AskerUsername  string     `gorm:"column:asker_username"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	StartedAt      *time.Time `gorm:"column:started_at"`
	PickedAt       *time.Time `gorm:"column:picked_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	AttemptCount   int        `gorm:"column:attempt_count"`
	Processed      bool       `gorm:"column:processed"`
	Error          string     `gorm:"column:error"`
	IdempotencyKey string     `gorm:"column:idempotency_key"`
}

// TableName pins the GORM table name.
func (TruthJob) TableName() string { return "truth_queue" }

// Intent is the fixed taxonomy the classifier maps a question into.
type Intent string

const (
	IntentPersonalSelf  Intent = "PersonalSelf"
	IntentPersonalOther Intent = "PersonalOther"
	IntentFactual       Intent = "Factual"
	IntentEvent         Intent = "Event"
	IntentTemporal      Intent = "Temporal"
	IntentComparison    Intent = "Comparison"
	IntentMultiEntity   Intent = "MultiEntity"
)

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityPerson EntityType = "Person"
	EntityTopic  EntityType = "Topic"
	EntityObject EntityType = "Object"
)

// Entity is a single extracted entity from a classified question.
type Entity struct {
	Type        EntityType `json:"type"`
	Text        string     `json:"text"`
	MentionedAs string     `json:"mentioned_as,omitempty"`
}

// TemporalRefType distinguishes relative ("yesterday") from absolute
// ("March 3rd") temporal references.
type TemporalRefType string

const (
	TemporalRelative TemporalRefType = "Relative"
	TemporalAbsolute TemporalRefType = "Absolute"
)

// TemporalRef is the temporal reference extracted from a question, if any.
type TemporalRef struct {
	Detected     bool            `json:"detected"`
	Text         string          `json:"text"`
	Type         TemporalRefType `json:"type"`
	RelativeDays int             `json:"relative_days,omitempty"`
}

// ClassifiedQuery is the transient result of intent classification.
type ClassifiedQuery struct {
	Intent          Intent      `json:"intent"`
	Confidence      float64     `json:"confidence"`
	Entities        []Entity    `json:"entities"`
	MentionedPeople []string    `json:"mentioned_people"`
	TemporalRef     TemporalRef `json:"temporal_ref"`
	Reasoning       string      `json:"reasoning"`
}

// RequiresSpecializedSearch implements the routing rule of spec.md §4.5.
func (c *ClassifiedQuery) RequiresSpecializedSearch() bool {
	switch {
	case c.Intent == IntentPersonalSelf:
		return true
	case c.Intent == IntentPersonalOther && len(c.MentionedPeople) > 0:
		return true
	case c.Intent == IntentTemporal && c.TemporalRef.Detected:
		return true
	case c.Intent == IntentComparison && len(c.Entities) >= 2:
		return true
	case c.Intent == IntentMultiEntity && len(c.MentionedPeople) >= 2:
		return true
	default:
		return false
	}
}

// ConfidenceLevel is the gate decision produced by the confidence evaluator.
type ConfidenceLevel string

const (
	ConfidenceNone   ConfidenceLevel = "None"
	ConfidenceLow    ConfidenceLevel = "Low"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceHigh   ConfidenceLevel = "High"
)

// SearchResult is one retrieval hit, dense- or sparse-sourced.
type SearchResult struct {
	ChatID             int64
	MessageID          int64
	ChunkIndex         int32
	ChunkText          string
	Metadata           json.RawMessage
	Distance           float64 // cosine distance, lower is closer
	Similarity         float64 // composite or reranked score, higher is better
	IsNewsDump         bool
	IsQuestionEmbedding bool
	IsContextWindow    bool
}

// SearchResponse is the final output of a retrieval pass, consumed by
// the confidence gate and the answer generator.
type SearchResponse struct {
	Results          []*SearchResult
	Confidence       ConfidenceLevel
	ConfidenceReason string
	BestScore        float64
	ScoreGap         float64
	HasFullTextMatch bool
}

// ContextMessage is one message inside an expanded context window.
type ContextMessage struct {
	MessageID      int64
	Author         string
	Text           string
	Date           time.Time
	IsForwarded    bool
	ForwardOrigin  string
}

// ContextThread is an ordered, deduplicated run of messages surrounding
// one or more retrieval hits.
type ContextThread struct {
	Messages []ContextMessage
}

// History is one (query, answer) round of prior conversation, used to
// build the prompt's chat history section.
type History struct {
	Query    string
	Answer   string
	CreateAt time.Time
}

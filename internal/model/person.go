package model

import "time"

// Person is a registry record. ImageID references a blob in the content store.
type Person struct {
	ID            string    `json:"id"`
	Name          string    `json:"nome"`
	BirthDate     string    `json:"data_nascimento"`
	ImageFilename string    `json:"imagem"`
	ImageID       string    `json:"imagem_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Snapshot is the person list as it was right before a mutation.
type Snapshot struct {
	ID        int64     `json:"id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	Persons   []Person  `json:"persons"`
}

// Snapshot reasons.
const (
	ReasonAdd    = "add"
	ReasonUpdate = "update"
	ReasonDelete = "delete"
)

package models

import "github.com/google/uuid"

// AssignID sets a fresh random id when the current one is zero.
func AssignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

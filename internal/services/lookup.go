package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// notFoundOr turns pgx.ErrNoRows into a NotFoundError with msg.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: msg}
	}
	return err
}

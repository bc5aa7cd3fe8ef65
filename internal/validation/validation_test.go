package validation

import (
	"testing"
	"time"

	"github.com/leca/loqed-births/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestPersonValid(t *testing.T) {
	v := New(fixedNow)

	for _, in := range []PersonInput{
		{Name: "Maria", BirthDate: "1990-05-17"},
		{Name: "João da Silva", BirthDate: "2000-02-29"},
		{Name: "Anne-Marie O'Neil", BirthDate: "1900-01-01"},
		{Name: "Today Born", BirthDate: "2025-06-01"},
	} {
		assert.NoError(t, v.Person(in), "%+v", in)
	}
}

func TestPersonInvalid(t *testing.T) {
	v := New(fixedNow)

	tests := []struct {
		name  string
		in    PersonInput
		field string
	}{
		{"missing name", PersonInput{BirthDate: "1990-01-01"}, "nome"},
		{"digits in name", PersonInput{Name: "R2D2", BirthDate: "1990-01-01"}, "nome"},
		{"leading space", PersonInput{Name: " Ana", BirthDate: "1990-01-01"}, "nome"},
		{"missing date", PersonInput{Name: "Ana"}, "data_nascimento"},
		{"bad format", PersonInput{Name: "Ana", BirthDate: "17/05/1990"}, "data_nascimento"},
		{"impossible day", PersonInput{Name: "Ana", BirthDate: "2001-02-29"}, "data_nascimento"},
		{"future", PersonInput{Name: "Ana", BirthDate: "2025-06-02"}, "data_nascimento"},
		{"too old", PersonInput{Name: "Ana", BirthDate: "1899-12-31"}, "data_nascimento"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Person(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestSingleFields(t *testing.T) {
	v := New(fixedNow)

	assert.NoError(t, v.Name("Carla"))
	err := v.Name("C4rla")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "nome")

	assert.NoError(t, v.BirthDate("1985-12-01"))
	err = v.BirthDate("yesterday")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "data_nascimento")
}

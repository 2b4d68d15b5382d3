package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"slink-api/internal/entities"
)

func TestVisitRecorderPersistsEveryQueuedVisit(t *testing.T) {
	visits := new(mockVisitRepository)
	visits.On("Record", mock.Anything, mock.Anything).Return(nil)

	recorder := NewVisitRecorder(visits, zap.NewNop(), 0)

	const count = 50
	for i := 0; i < count; i++ {
		recorder.Record(&entities.Visit{ID: fmt.Sprintf("visit-%d", i), URLID: "url-1"})
	}
	recorder.Close()

	visits.AssertNumberOfCalls(t, "Record", count)
}

func TestVisitRecorderSwallowsWriteFailures(t *testing.T) {
	visits := new(mockVisitRepository)
	visits.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

	recorder := NewVisitRecorder(visits, zap.NewNop(), 0)

	recorder.Record(&entities.Visit{ID: "visit-1", URLID: "url-1"})
	recorder.Record(&entities.Visit{ID: "visit-2", URLID: "url-1"})
	recorder.Close()

	visits.AssertNumberOfCalls(t, "Record", 2)
}

func TestVisitRecorderDropsWhenQueueFull(t *testing.T) {
	gate := make(chan struct{})

	visits := new(mockVisitRepository)
	visits.On("Record", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		<-gate
	}).Return(nil)

	recorder := NewVisitRecorder(visits, zap.NewNop(), 1)

	// The first visit occupies the worker, the second fills the queue, and
	// everything after that has nowhere to go.
	recorder.Record(&entities.Visit{ID: "visit-1", URLID: "url-1"})
	for i := 0; i < 20; i++ {
		recorder.Record(&entities.Visit{ID: fmt.Sprintf("extra-%d", i), URLID: "url-1"})
	}

	close(gate)
	recorder.Close()

	assert.LessOrEqual(t, len(visits.Calls), 2)
}

func TestVisitRecorderCloseIsIdempotent(t *testing.T) {
	visits := new(mockVisitRepository)
	visits.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()

	recorder := NewVisitRecorder(visits, zap.NewNop(), 0)
	recorder.Close()
	recorder.Close()
}

func TestHashIP(t *testing.T) {
	hash := HashIP("salt", "198.51.100.7")

	assert.Len(t, hash, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", hash)
	assert.Equal(t, hash, HashIP("salt", "198.51.100.7"), "hashing is deterministic")
	assert.NotEqual(t, hash, HashIP("other-salt", "198.51.100.7"), "salt changes the hash")
	assert.NotEqual(t, hash, HashIP("salt", "198.51.100.8"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("", 5))
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	if got := optional("value"); assert.NotNil(t, got) {
		assert.Equal(t, "value", *got)
	}
}

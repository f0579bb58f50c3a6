package inmemorystore

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/pipegridgo/internal/artifact"
)

func TestStatus(t *testing.T) {
	s := New()

	assert.Equal(t, StatusPending, s.Status("Read"))

	s.SetStatus("Read", StatusRunning)
	assert.Equal(t, StatusRunning, s.Status("Read"))
	assert.Equal(t, "running", s.Status("Read").String())
}

func TestOutput(t *testing.T) {
	s := New()
	assert.Nil(t, s.Output("Parse"))

	sheet := artifact.NewSheet([][]string{{"a"}})
	s.SetOutput("Parse", sheet)
	assert.Same(t, sheet, s.Output("Parse"))
	assert.Equal(t, map[string]artifact.Artifact{"Parse": sheet}, s.Outputs())
}

func TestFailAndSkip(t *testing.T) {
	s := New()
	boom := errors.New("boom")

	s.Fail("A", boom)
	s.SetStatus("B", StatusCompleted)
	s.Skip("A")
	s.Skip("B")
	s.Skip("C")

	assert.Equal(t, boom, s.Error("A"))
	assert.NoError(t, s.Error("B"))
	assert.Equal(t, map[string]Status{
		"A": StatusFailed,
		"B": StatusCompleted,
		"C": StatusSkipped,
	}, s.Statuses())
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("block-%d", i)
			s.SetStatus(name, StatusRunning)
			s.SetOutput(name, artifact.NewSheet(nil))
			s.SetStatus(name, StatusCompleted)
			_ = s.Output(fmt.Sprintf("block-%d", (i+1)%50))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Statuses(), 50)
	assert.Len(t, s.Outputs(), 50)
}

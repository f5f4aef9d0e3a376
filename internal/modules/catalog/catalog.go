// Package catalog provides read-only access to the study's task content.
//
// Task content is loaded once at startup from a JSON file and validated
// for structural completeness. Malformed entries are rejected at load
// time so the rest of the system never sees a half-formed task.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// NotFoundError indicates a lookup for a task reference that does not exist.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.Ref)
}

// DataError indicates structurally invalid task content. Callers surface
// this as a blocking page-level error with a refresh instruction rather
// than crashing the session.
type DataError struct {
	Ref    string
	Detail string
}

func (e *DataError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("task data error: %s", e.Detail)
	}
	return fmt.Sprintf("task data error for %s: %s", e.Ref, e.Detail)
}

// Catalog is the read-only task content store.
type Catalog struct {
	tasks     map[int]*Task
	tutorials map[string]*Task
	numTasks  int
	logger    zerolog.Logger
}

// catalogFile is the on-disk layout of the task content file.
type catalogFile struct {
	Tasks     []Task `json:"tasks"`
	Tutorials []Task `json:"tutorials"`
}

// Load reads and validates the task content file.
func Load(path string, logger zerolog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task content file: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse task content file: %w", err)
	}

	c := &Catalog{
		tasks:     make(map[int]*Task),
		tutorials: make(map[string]*Task),
		logger:    logger.With().Str("component", "catalog").Logger(),
	}

	for i := range file.Tasks {
		task := &file.Tasks[i]
		id, err := strconv.Atoi(task.Ref)
		if err != nil {
			return nil, &DataError{Ref: task.Ref, Detail: "main task reference must be numeric"}
		}
		if err := validateTask(task); err != nil {
			return nil, err
		}
		if _, exists := c.tasks[id]; exists {
			return nil, &DataError{Ref: task.Ref, Detail: "duplicate task reference"}
		}
		c.tasks[id] = task
	}

	for i := range file.Tutorials {
		task := &file.Tutorials[i]
		if !isTutorialRef(task.Ref) {
			return nil, &DataError{Ref: task.Ref, Detail: "tutorial reference must start with tutorial_"}
		}
		if err := validateTask(task); err != nil {
			return nil, err
		}
		if _, exists := c.tutorials[task.Ref]; exists {
			return nil, &DataError{Ref: task.Ref, Detail: "duplicate tutorial reference"}
		}
		c.tutorials[task.Ref] = task
	}

	// Main tasks must form a contiguous 1..N range so a randomized
	// permutation of 1..N always resolves.
	c.numTasks = len(c.tasks)
	for id := 1; id <= c.numTasks; id++ {
		if _, ok := c.tasks[id]; !ok {
			return nil, &DataError{Detail: fmt.Sprintf("task references are not contiguous: missing %d", id)}
		}
	}

	c.logger.Info().
		Int("tasks", len(c.tasks)).
		Int("tutorials", len(c.tutorials)).
		Msg("Task catalog loaded")

	return c, nil
}

// validateTask checks the structural invariants every task must satisfy.
func validateTask(t *Task) error {
	if t.Ref == "" {
		return &DataError{Detail: "missing task reference"}
	}
	if len(t.Stocks) != 1 {
		return &DataError{Ref: t.Ref, Detail: "task must have exactly 1 stock"}
	}
	for i, stock := range t.Stocks {
		switch {
		case stock.Name == "":
			return &DataError{Ref: t.Ref, Detail: fmt.Sprintf("stock %d missing required field: name", i)}
		case stock.Ticker == "":
			return &DataError{Ref: t.Ref, Detail: fmt.Sprintf("stock %d missing required field: ticker", i)}
		case stock.ShortDescription == "":
			return &DataError{Ref: t.Ref, Detail: fmt.Sprintf("stock %d missing required field: short_description", i)}
		case stock.DetailedDescription == "":
			return &DataError{Ref: t.Ref, Detail: fmt.Sprintf("stock %d missing required field: detailed_description", i)}
		}
	}
	return nil
}

// Task returns a main task by its numeric content id (1-based).
func (c *Catalog) Task(id int) (*Task, error) {
	task, ok := c.tasks[id]
	if !ok {
		return nil, &NotFoundError{Ref: strconv.Itoa(id)}
	}
	return task, nil
}

// Tutorial returns a tutorial round by its reference ("tutorial_1").
func (c *Catalog) Tutorial(ref string) (*Task, error) {
	task, ok := c.tutorials[ref]
	if !ok {
		return nil, &NotFoundError{Ref: ref}
	}
	return task, nil
}

// Get resolves any task reference: a numeric string for main tasks or a
// "tutorial_N" reference for tutorial rounds.
func (c *Catalog) Get(ref string) (*Task, error) {
	if isTutorialRef(ref) {
		return c.Tutorial(ref)
	}
	id, err := strconv.Atoi(ref)
	if err != nil {
		return nil, &NotFoundError{Ref: ref}
	}
	return c.Task(id)
}

// NumTasks returns the number of main tasks in the catalog.
func (c *Catalog) NumTasks() int {
	return c.numTasks
}

// NumTutorials returns the number of tutorial rounds in the catalog.
func (c *Catalog) NumTutorials() int {
	return len(c.tutorials)
}

func isTutorialRef(ref string) bool {
	return strings.HasPrefix(ref, "tutorial_")
}

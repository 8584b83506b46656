package core

import (
	"errors"
	"sync"
)

// CommandHandler decodes a command's arguments from data and runs it
type CommandHandler func(data *[]byte) error

// Command is a console command or response message
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format, e.g. "cmd=%c accepted=%c"
	Handler CommandHandler
}

// CommandRegistry maps console command IDs to handlers.
// Responses (device to host) are registered with a nil handler.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint16]*Command
	order    []uint16
}

var (
	errDuplicateCommand = errors.New("command ID already registered")
	errNotACommand      = errors.New("response messages cannot be dispatched")
)

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
	}
}

// Register adds a command under a fixed ID
func (r *CommandRegistry) Register(id uint16, name string, format string, handler CommandHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[id]; exists {
		return errDuplicateCommand
	}
	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	}
	r.order = append(r.order, id)
	return nil
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return errors.New("unknown command ID: " + itoa(int(cmdID)))
	}
	if cmd.Handler == nil {
		return errNotACommand
	}
	return cmd.Handler(data)
}

// Dictionary lists the registered messages one per line, in
// registration order: "id name format".
func (r *CommandRegistry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dict := ""
	for _, id := range r.order {
		cmd := r.commands[id]
		dict += itoa(int(id)) + " " + cmd.Name
		if cmd.Format != "" {
			dict += " " + cmd.Format
		}
		dict += "\n"
	}
	return dict
}

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTaskID returns an id of the form TASK-<unix millis>-<9 random chars>.
func NewTaskID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("TASK-%d-%s", time.Now().UnixMilli(), random)
}

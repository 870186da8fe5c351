package row

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix marks identifiers allocated client-side. Server identifiers
// never carry it.
const TempIDPrefix = "new_"

// GenerateTempID returns a temporary identifier composed of TempIDPrefix, the
// current time in base36 milliseconds and a random suffix.
func GenerateTempID() string {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return TempIDPrefix + ms + "_" + suffix
}

// IsTempID reports whether id was produced by GenerateTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

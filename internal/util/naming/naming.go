package naming

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	inventoryPrefix  = "deploy_temp"
	partitionPrefix  = "deploy_audit_"
	detailPrefix     = "deploy_detailed_"
	partitionLayout  = "20060102"
	inventoryLayout  = "20060102150405"
	detailTimeLayout = "20060102_150405"
)

// fileUnsafe lists the characters replaced in host and actor names before they
// are used in file names.
var fileUnsafe = strings.NewReplacer("@", "_", ".", "_", "/", "_", "\\", "_", " ", "_")

// ScopedInventory returns the inventory name for one deploy attempt.
// An empty suffix is omitted.
func ScopedInventory(host string, t time.Time, suffix string) string {
	name := fmt.Sprintf("%s_%s_%s", inventoryPrefix, host, t.Format(inventoryLayout))
	if suffix == "" {
		return name
	}
	return name + "_" + suffix
}

// NewScopedInventory is ScopedInventory with a random 8-character suffix.
func NewScopedInventory(host string, t time.Time) string {
	return ScopedInventory(host, t, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// IsScopedInventory reports whether name was produced by ScopedInventory.
func IsScopedInventory(name string) bool {
	return strings.HasPrefix(name, inventoryPrefix+"_")
}

// AuditPartition returns the partition file name for the day of t.
func AuditPartition(t time.Time) string {
	return partitionPrefix + t.Format(partitionLayout) + ".json"
}

// ParseAuditPartition extracts the day from a partition file name.
func ParseAuditPartition(name string, loc *time.Location) (time.Time, bool) {
	if !strings.HasPrefix(name, partitionPrefix) || !strings.HasSuffix(name, ".json") {
		return time.Time{}, false
	}
	day := strings.TrimSuffix(strings.TrimPrefix(name, partitionPrefix), ".json")
	t, err := time.ParseInLocation(partitionLayout, day, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AuditDetail returns the detail file name for one audit record.
func AuditDetail(t time.Time, host, actor string) string {
	return fmt.Sprintf("%s%s_%s_%s.json", detailPrefix, t.Format(detailTimeLayout), SanitizeFile(host), SanitizeFile(actor))
}

// IsAuditDetailFor reports whether name is a detail file written for host
// and actor. Names are compared literally, so glob metacharacters in host or
// actor carry no meaning.
func IsAuditDetailFor(name, host, actor string) bool {
	suffix := fmt.Sprintf("_%s_%s.json", SanitizeFile(host), SanitizeFile(actor))
	return strings.HasPrefix(name, detailPrefix) && strings.HasSuffix(name, suffix) &&
		len(name) >= len(detailPrefix)+len(detailTimeLayout)+len(suffix)
}

// SanitizeFile makes a host or actor name safe to embed in a file name.
func SanitizeFile(s string) string {
	return fileUnsafe.Replace(s)
}

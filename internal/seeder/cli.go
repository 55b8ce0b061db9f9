package seeder

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tonuslab/tonus/pkg/logger"
)

// logFilePermission keeps run logs readable by the operator only.
const logFilePermission = 0600

// SetupLogging mirrors all output to stdout and a per-run log file and
// returns the file so the caller can close it when the run ends.
func SetupLogging(logFile string) (*os.File, error) {
	filename := logFile
	if filename == "" {
		filename = "seed_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	multi := io.MultiWriter(os.Stdout, file)

	logger.Init(logger.WithOutput(multi))
	log.SetOutput(multi)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	log.Printf("📝 Logging to %s", filename)

	return file, nil
}

// ShowHelp prints the tool usage.
func ShowHelp() {
	fmt.Println("Tonus Session Seeder")
	fmt.Println()
	fmt.Println("Creates scoring sessions against a running instance, fires a randomized")
	fmt.Println("mutation mix at them, and verifies that every session still satisfies the")
	fmt.Println("engine invariants afterwards.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  seed-sessions [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -url string        Base URL of the service (default \"http://localhost:9180\")")
	fmt.Println("  -sessions int      Number of sessions to create (default 200)")
	fmt.Println("  -mutations int     Mutations per session (default 50)")
	fmt.Println("  -workers int       Concurrent workers (default 2x CPU count)")
	fmt.Println("  -timeout duration  Per-request timeout (default 30s)")
	fmt.Println("  -output string     Report file path (default seed_report_<timestamp>.json.zst)")
	fmt.Println("  -log string        Log file path (default seed_log_<timestamp>.log)")
	fmt.Println("  -verify            Read sessions back and check invariants (default true)")
	fmt.Println("  -verbose           Log every progress step instead of a progress line")
	fmt.Println("  -help              Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  seed-sessions")
	fmt.Println("  seed-sessions -sessions 1000 -mutations 100 -workers 16")
	fmt.Println("  seed-sessions -url http://staging:9180 -verify=false -output smoke.json.zst")
}

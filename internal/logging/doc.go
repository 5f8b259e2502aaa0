// Package logging provides structured logging for the sbackup CLI using slog.
//
// A run logs to two sinks at once: a live console stream and a persistent,
// append-only log file. Both share a single level so one verbosity switch
// controls everything.
//
// # Basic Usage
//
//	file, err := logging.OpenFile("log.txt")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromFlags(verbose, quiet),
//		Format: logging.FormatText,
//		Output: os.Stderr,
//		File:   file,
//	})
//	logger.Info("starting backup", "host", host)
//
// The logger is passed explicitly to every component. [NewContext] and
// [FromContext] carry it through cobra command contexts.
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//		// logs appear in test output on failure
//	}
package logging

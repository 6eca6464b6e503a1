package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DataDir        string
	ProcessFile    string
	CharFile       string
	ArtifactFolder string
	ArtifactSubdir string
	Samples        []string
	BatchID        string

	OutputDir    string
	CypherFile   string
	ImportFolder string

	StoreDSN    string
	MetricsFile string

	ImageScale          float64
	CharUnderscoreAlias string
	CharAliases         map[string]string

	LogFormat string
}

func Load() Config {
	return Config{
		DataDir:             getenv("LABGRAPH_DATA_DIR", "test/testdata"),
		ProcessFile:         getenv("LABGRAPH_PROCESS_FILE", "test_process.json"),
		CharFile:            getenv("LABGRAPH_CHAR_FILE", "test_char.json"),
		ArtifactFolder:      getenv("LABGRAPH_ARTIFACT_FOLDER", "Characterization_B19"),
		ArtifactSubdir:      getenv("LABGRAPH_ARTIFACT_SUBDIR", "characterization0"),
		Samples:             splitList(os.Getenv("LABGRAPH_SAMPLES")),
		BatchID:             getenv("LABGRAPH_BATCH_ID", "b19"),
		OutputDir:           getenv("LABGRAPH_OUTPUT_DIR", "."),
		CypherFile:          getenv("LABGRAPH_CYPHER_FILE", "output.cypher"),
		ImportFolder:        os.Getenv("LABGRAPH_NEO4J_IMPORT_FOLDER"),
		StoreDSN:            os.Getenv("LABGRAPH_STORE_DSN"),
		MetricsFile:         os.Getenv("LABGRAPH_METRICS_FILE"),
		ImageScale:          getenvFloat("LABGRAPH_IMAGE_SCALE", 64*255),
		CharUnderscoreAlias: getenv("LABGRAPH_CHAR_UNDERSCORE_ALIAS", "plimaging"),
		CharAliases:         parseAliases(os.Getenv("LABGRAPH_CHAR_ALIASES")),
		LogFormat:           getenv("LABGRAPH_LOG_FORMAT", "console"),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAliases reads "from=to,from=to". Malformed pairs are ignored.
func parseAliases(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		from, to, ok := strings.Cut(part, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			continue
		}
		out[strings.ToLower(from)] = strings.ToLower(to)
	}
	return out
}

// Package campaign holds the hashtag and comment lists a run works through.
package campaign

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultHashtags is used when neither the config nor a hashtags file
// provides any.
var DefaultHashtags = []string{
	"tech", "security", "github", "projects",
	"cybersecurity", "coding", "programming", "developers",
	"infosec", "hacking", "technews", "technology",
	"devops", "machinelearning", "ai", "artificialintelligence",
	"data", "datascience", "python", "javascript",
	"software", "opensource", "ethicalhacking", "networksecurity",
	"informationsecurity", "pentesting", "malware", "cryptography",
	"itsecurity", "securitytips", "cyberthreats", "firewalls",
	"cloudsecurity", "dataprotection", "ransomware", "vulnerability",
	"securityawareness", "securitybreach", "securityresearch", "incidentresponse",
}

// ParseHashtags reads one hashtag per line. Surrounding whitespace and any
// leading '#' characters are stripped; blank lines are skipped.
func ParseHashtags(r *bufio.Scanner) ([]string, error) {
	var tags []string
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" {
			continue
		}
		tag := strings.TrimLeft(line, "#")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// ReadHashtagsFile parses the hashtags file at path.
func ReadHashtagsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tags, err := ParseHashtags(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tags, nil
}

// LoadHashtags returns the hashtags in path, or defaults when path is empty,
// missing or unreadable. The fallback is logged, never fatal.
func LoadHashtags(log *zap.SugaredLogger, path string, defaults []string) []string {
	if path == "" {
		log.Info("Using default hashtags.")
		return defaults
	}

	if _, err := os.Stat(path); err != nil {
		log.Errorf("Hashtags file %s does not exist. Using default hashtags.", path)
		return defaults
	}

	tags, err := ReadHashtagsFile(path)
	if err != nil {
		log.Errorf("Failed to load hashtags from %s: %v", path, err)
		log.Info("Falling back to default hashtags.")
		return defaults
	}

	log.Infof("Loaded %d hashtags from %s.", len(tags), path)
	return tags
}

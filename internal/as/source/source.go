// Package source reads the canned service data an authoritative source
// answers with. Files are re-read on every request so they can be edited
// while the participant runs.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"idsim/pkg/platform/strutil"
)

const (
	// MockData is sent when no data file exists for a subject.
	MockData = "mock data"

	servicesFile = "services.json"
	delayFile    = "delay.json"
)

// Files serves data from a directory laid out as
//
//	services.json                    {"services": ["bank_statement", ...]}
//	delay.json                       {"<namespace>": {"<identifier>": 3}}
//	<service>_<namespace>_<id>.json  data returned for that subject
type Files struct {
	dir          string
	defaultDelay int
}

func NewFiles(dir string, defaultDelay int) *Files {
	if defaultDelay < 0 {
		defaultDelay = 0
	}
	return &Files{dir: dir, defaultDelay: defaultDelay}
}

// Services lists the service ids in services.json. A missing file is an
// empty list.
func (f *Files) Services() ([]string, error) {
	v, err := f.read(servicesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return strutil.Dedupe(v.GetStringSlice("services")), nil
}

// Data returns the compacted JSON for a subject, or MockData when there is
// no readable file for it.
func (f *Files) Data(serviceID, namespace, identifier string) string {
	name := serviceID + "_" + namespace + "_" + identifier + ".json"
	if strings.ContainsAny(name, `/\`) {
		return MockData
	}
	raw, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		return MockData
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return MockData
	}
	return buf.String()
}

// Delay returns the configured answer delay in seconds for a subject.
func (f *Files) Delay(namespace, identifier string) int {
	v, err := f.read(delayFile)
	if err != nil {
		return f.defaultDelay
	}
	key := namespace + "::" + identifier
	if !v.IsSet(key) {
		return f.defaultDelay
	}
	if d := v.GetInt(key); d > 0 {
		return d
	}
	return 0
}

func (f *Files) read(name string) (*viper.Viper, error) {
	path := filepath.Join(f.dir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return v, nil
}

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
)

// ReadJSONFile decodes the JSON document at path into out. It returns false
// when the file does not exist, holds invalid JSON, holds the literal null,
// or does not match the shape of out. Callers cannot distinguish these cases;
// a false result means "treat as absent".
func ReadJSONFile(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Error leyendo %s: %v", path, err)
		}
		return false
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("Error leyendo %s: %v", path, err)
		return false
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		log.Printf("Archivo %s contiene null", path)
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("Archivo %s con formato inválido: %v", path, err)
		return false
	}
	return true
}

// WriteJSONFile serializes v to path, creating parent directories as needed.
// The document is written to a temp file and renamed into place so readers
// never observe a partial write. Failures are logged and reported as false.
func WriteJSONFile(path string, v any) bool {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Error crítico: no se pudo crear '%s': %v", dir, err)
		return false
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Error serializando %s: %v", path, err)
		return false
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		log.Printf("Error escribiendo %s: %v", path, err)
		return false
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		log.Printf("Error escribiendo %s: %v", path, err)
		return false
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		log.Printf("Error escribiendo %s: %v", path, err)
		return false
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		log.Printf("Error escribiendo %s: %v", path, err)
		return false
	}
	return true
}

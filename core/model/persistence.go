package model

import (
	"bufio"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	lerrors "github.com/YuminosukeSato/lidmlp/pkg/errors"
)

// SaveModel gob-encodes model into filename, creating parent directories.
//
//	var snap neural_network.Snapshot
//	// ... fill snap ...
//	err := model.SaveModel(&snap, "out/mlp-3layer-tfidf-50.h5")
func SaveModel(model interface{}, filename string) (err error) {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return lerrors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return lerrors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = lerrors.Wrap(cerr, "failed to close file")
		}
	}()

	w := bufio.NewWriter(file)
	if err := SaveModelToWriter(model, w); err != nil {
		return err
	}
	return lerrors.Wrap(w.Flush(), "failed to flush model file")
}

// LoadModel decodes a gob-encoded model from filename into model, which
// must be a pointer.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return lerrors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(model, bufio.NewReader(file))
}

// SaveModelToWriter gob-encodes model into w.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return lerrors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader decodes a gob-encoded model from r.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return lerrors.Wrap(err, "failed to decode model")
	}
	return nil
}

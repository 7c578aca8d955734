package storage

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"
)

// DiskStorage persists JSON documents under a market-scoped folder.
// Writes go to a temp file first and are renamed into place so a crash
// mid-write never leaves a torn file.
type DiskStorage struct {
	Market     string
	RootFolder string
}

func NewDiskStorage(market, rootFolder string) *DiskStorage {
	return &DiskStorage{
		Market:     market,
		RootFolder: rootFolder,
	}
}

func (ds *DiskStorage) GetFileName(name string) (string, string) {
	fileName := path.Join(ds.RootFolder, ds.Market, name)
	tmpFileName := fileName + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixMilli())
	return fileName, tmpFileName
}

func (ds *DiskStorage) SaveJson(data any, name string) error {
	fileName, tmpFileName := ds.GetFileName(name)
	if err := os.MkdirAll(path.Dir(fileName), 0755); err != nil {
		return err
	}

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(file)
	err = enc.Encode(data)
	file.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (ds *DiskStorage) LoadJson(data any, filename string) error {
	name, _ := ds.GetFileName(filename)
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	err = json.NewDecoder(file).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (ds *DiskStorage) SaveGzippedJson(data any, filename string) error {
	fileName, tmpFileName := ds.GetFileName(filename)
	if err := os.MkdirAll(path.Dir(fileName), 0755); err != nil {
		return err
	}

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	zipWriter := gzip.NewWriter(file)
	err = json.NewEncoder(zipWriter).Encode(data)
	// the gzip footer must hit the temp file before the rename, a crash
	// in between would otherwise publish a torn file
	if closeErr := zipWriter.Close(); err == nil {
		err = closeErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (ds *DiskStorage) LoadGzippedJson(data any, filename string) error {
	name, _ := ds.GetFileName(filename)
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	zipReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer zipReader.Close()

	err = json.NewDecoder(zipReader).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

package types

type StorageProvider interface {
	SaveJson(data any, filename string) error
	LoadJson(data any, filename string) error
	SaveGzippedJson(data any, filename string) error
	LoadGzippedJson(data any, filename string) error
}

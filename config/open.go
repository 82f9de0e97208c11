package config

import (
	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/docstore/sqlite"
	"github.com/delaneyj/todoparty/logging"
	"github.com/delaneyj/todoparty/store"
	"github.com/sirupsen/logrus"
)

// OpenDB opens the configured document database.
func (c *Config) OpenDB() (docstore.DB, error) {
	if c.Data.Driver == DriverMemory {
		return docstore.NewMemory(), nil
	}
	return sqlite.Open(c.Data.Path)
}

// StoreOptions are the options every screen store is created with.
func (c *Config) StoreOptions(screen string) []store.Option {
	log := logging.NewLogger("store")
	if c.Store.Quiet {
		l := logrus.New()
		l.SetOutput(log.Logger.Out)
		l.SetFormatter(log.Logger.Formatter)
		l.SetLevel(logrus.WarnLevel)
		log = logrus.NewEntry(l).WithField("component", "store")
	}
	return []store.Option{
		store.WithName(c.Store.Name + "." + screen),
		store.WithLogger(log),
	}
}

// Package journal stores cleaning runs in an embedded SQLite database.
//
// Every run is one row in the runs table; each package decision of the run
// is a row in the entries table, in decision order. A run and its entries
// are written in a single transaction, so a failed write leaves no partial
// run behind.
//
//	j, err := journal.Open("data/journal.db")
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	cleaner := retention.NewCleaner(client, client, engine, mode, retention.WithJournal(j))
//
// The database uses WAL mode and a single connection.
package journal

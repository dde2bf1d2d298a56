// dmctl is a read-only operator tool: it scans the badger store and
// renders message metadata. Content stays ciphertext, truncated for
// display; this tool has no access to the encryption key.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type diskMessage struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`
	ReadAt         *int64 `json:"read_at,omitempty"`
}

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Missing -db flag")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Org", "Sender", "Receiver", "At", "Read", "Ciphertext"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			err := item.Value(func(v []byte) error {
				var m diskMessage
				if err := json.Unmarshal(v, &m); err != nil {
					// Keep scanning; feed index values are raw keys,
					// not JSON.
					return nil
				}

				read := "-"
				if m.ReadAt != nil {
					read = time.Unix(0, *m.ReadAt).UTC().Format("15:04:05")
				}

				table.Append([]string{
					truncate(string(item.Key()), 48),
					m.OrganizationID,
					truncate(m.SenderID, 8),
					truncate(m.ReceiverID, 8),
					time.Unix(0, m.CreatedAt).UTC().Format("2006-01-02 15:04:05"),
					read,
					truncate(m.Content, 24),
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("%d message records under prefix %q\n", count, *prefix)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open read-only: %w", err)
	}
	return db, nil
}

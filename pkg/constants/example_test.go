package constants_test

import (
	"fmt"
	"time"

	"github.com/agentstation/airsync/pkg/constants"
)

// Example_batching shows how a slice of writes is split into Airtable-sized calls.
func Example_batching() {
	records := 23
	calls := (records + constants.MaxBatchSize - 1) / constants.MaxBatchSize
	fmt.Printf("%d records need %d calls\n", records, calls)
	// Output: 23 records need 3 calls
}

// Example_dates demonstrates the meeting date layout.
func Example_dates() {
	d := time.Date(2021, time.March, 4, 0, 0, 0, 0, time.UTC)
	fmt.Println(d.Format(constants.DateFormat))
	// Output: 03/04/2021
}

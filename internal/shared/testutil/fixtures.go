package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// NHSCallsCSV is a small dataset with the production column layout.
// North West appears twice; Yorkshire has zero calls and zero population
// so every ratio on that row is non-finite.
const NHSCallsCSV = "Provider Name,Nhs1 Number Calls Offered SUM,Nhs1 Answered Calls SUM,Nhs1 Abandoned Calls SUM," +
	"Nhs1 Cost Call Handlers SUM,Nhs1 Cost Clinical Staff SUM,Nhs1 Recommend To Ae SUM,Nhs1 Recommend To Primcare SUM," +
	"Nhs1 Population SUM,Nhs1 Amb Dispatches SUM,Nhs1 Calls Through 111 SUM,Combined_Rank,Answered_60sec_Rate," +
	"Callback_10min_Compliance,Ave_Wtransfer_Time_Minutes\n" +
	"North West,1000,900,100,5000,4000,90,450,200000,50,800,3,85.5,70.2,12.5\n" +
	"London,2000,1800,200,9000,9000,360,900,500000,120,1500,1,90.1,80.0,15.0\n" +
	"North West,500,400,100,2000,2000,40,200,200000,30,400,5,75.0,60.0,10.0\n" +
	"Yorkshire,0,0,0,1000,500,0,0,0,0,0,2,0,0,\n"

// FixtureProviders lists the providers of NHSCallsCSV in first-appearance order.
var FixtureProviders = []string{"North West", "London", "Yorkshire"}

// WriteFile writes content to name inside a per-test temp dir and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteNHSCallsCSV writes NHSCallsCSV as "NHS Calls.csv" and returns its path.
func WriteNHSCallsCSV(t *testing.T) string {
	t.Helper()
	return WriteFile(t, "NHS Calls.csv", NHSCallsCSV)
}

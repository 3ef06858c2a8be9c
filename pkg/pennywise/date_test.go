package pennywise

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:    "date only format YYYY-MM-DD",
			input:   `"2024-02-15"`,
			want:    "2024-02-15",
			wantErr: false,
		},
		{
			name:    "RFC3339 format",
			input:   `"2024-02-15T15:04:05Z"`,
			want:    "2024-02-15",
			wantErr: false,
		},
		{
			name:    "datetime without timezone",
			input:   `"2024-02-15T15:04:05"`,
			want:    "2024-02-15",
			wantErr: false,
		},
		{
			name:    "null value",
			input:   `null`,
			want:    "",
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   `""`,
			want:    "",
			wantErr: false,
		},
		{
			name:    "invalid format",
			input:   `"not-a-date"`,
			want:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)

			if (err != nil) != tt.wantErr {
				t.Errorf("Date.UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil {
				got := d.String()
				if got != tt.want {
					t.Errorf("Date.UnmarshalJSON() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want string
	}{
		{
			name: "normal date",
			date: Date{Time: time.Date(2024, 2, 15, 15, 30, 0, 0, time.UTC)},
			want: `"2024-02-15"`,
		},
		{
			name: "zero date",
			date: Date{Time: time.Time{}},
			want: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.date)
			if err != nil {
				t.Errorf("Date.MarshalJSON() error = %v", err)
				return
			}
			if string(got) != tt.want {
				t.Errorf("Date.MarshalJSON() = %v, want %v", string(got), tt.want)
			}
		})
	}
}

func TestTransaction_DateParsing(t *testing.T) {
	jsonData := `{
		"id": "tx-1",
		"userId": "user-123",
		"type": "expense",
		"date": "2024-02-15",
		"amount": "42.50",
		"category": "groceries"
	}`

	var txn Transaction
	if err := json.Unmarshal([]byte(jsonData), &txn); err != nil {
		t.Fatalf("Failed to unmarshal transaction: %v", err)
	}

	if txn.Date.String() != "2024-02-15" {
		t.Errorf("Transaction date = %v, want 2024-02-15", txn.Date.String())
	}
	if !txn.Amount.Equal(dec("42.50")) {
		t.Errorf("Transaction amount = %v, want 42.50", txn.Amount)
	}
}

func TestDateOf(t *testing.T) {
	d := DateOf(time.Date(2024, 2, 15, 23, 59, 59, 0, time.UTC))
	if d.String() != "2024-02-15" {
		t.Errorf("DateOf() = %v, want 2024-02-15", d.String())
	}
}

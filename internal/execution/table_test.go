package execution

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

func TestMaterializeEmptyInput(t *testing.T) {
	table := Materialize(nil)
	if table.Columns == nil || table.Rows == nil {
		t.Fatal("empty input must yield empty slices, not nil")
	}
	if len(table.Columns) != 0 || len(table.Rows) != 0 {
		t.Fatalf("table = %+v", table)
	}

	encoded, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `{"columns":[],"rows":[]}` {
		t.Fatalf("json = %s", encoded)
	}
}

func TestMaterializeHeaderOnly(t *testing.T) {
	table := Materialize([]types.Row{headerRow("device_id", "sensor_id")})
	if !reflect.DeepEqual(table.Columns, []string{"device_id", "sensor_id"}) {
		t.Fatalf("columns = %v", table.Columns)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("rows = %v", table.Rows)
	}
}

func TestMaterializePairsCellsByPosition(t *testing.T) {
	rows := []types.Row{
		headerRow("sensor_id", "status", "event_time"),
		dataRow(aws.String("spot-02"), aws.String("OCCUPIED"), aws.String("10:01:00")),
		dataRow(aws.String("spot-01"), nil, aws.String("10:02:30")),
	}
	table := Materialize(rows)

	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d", len(table.Rows))
	}
	if got := *table.Rows[0]["status"]; got != "OCCUPIED" {
		t.Fatalf("status = %q", got)
	}
	if table.Rows[1]["status"] != nil {
		t.Fatal("null marker should stay nil")
	}
	if got := *table.Rows[1]["event_time"]; got != "10:02:30" {
		t.Fatalf("event_time = %q", got)
	}
}

func TestMaterializeShortRowFillsNil(t *testing.T) {
	rows := []types.Row{
		headerRow("a", "b", "c"),
		dataRow(aws.String("1")),
	}
	table := Materialize(rows)
	if table.Rows[0]["b"] != nil || table.Rows[0]["c"] != nil {
		t.Fatalf("missing cells should map to nil: %+v", table.Rows[0])
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	rows := []types.Row{
		headerRow("sensor_id", "status"),
		dataRow(aws.String("spot-01"), aws.String("FREE")),
		dataRow(aws.String("spot-02"), nil),
	}
	first := Materialize(rows)
	second := Materialize(rows)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Materialize not deterministic:\n%+v\n%+v", first, second)
	}
}

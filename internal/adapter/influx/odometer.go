package influx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/shopspring/decimal"
)

// Querier is the part of api.QueryAPI the reader needs.
type Querier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// OdometerReader reads cumulative distances written as points of the
// "odometer" measurement, tagged by bike_id, with a "distance" field.
type OdometerReader struct {
	client influxdb2.Client
	query  Querier
	bucket string
}

func NewOdometerReader(url, token, org, bucket string) *OdometerReader {
	client := influxdb2.NewClient(url, token)
	return &OdometerReader{
		client: client,
		query:  client.QueryAPI(org),
		bucket: bucket,
	}
}

func NewOdometerReaderWithQuerier(q Querier, bucket string) *OdometerReader {
	return &OdometerReader{query: q, bucket: bucket}
}

func (r *OdometerReader) FindLatestDistance(ctx context.Context, bikeID uuid.UUID) (*decimal.Decimal, error) {
	return r.last(ctx, lastDistanceQuery(r.bucket, bikeID, nil))
}

// FindDistanceAtOrBefore includes every point up to the end of date's UTC day.
func (r *OdometerReader) FindDistanceAtOrBefore(ctx context.Context, bikeID uuid.UUID, date time.Time) (*decimal.Decimal, error) {
	stop := endOfDay(date)
	return r.last(ctx, lastDistanceQuery(r.bucket, bikeID, &stop))
}

func (r *OdometerReader) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

func (r *OdometerReader) last(ctx context.Context, query string) (*decimal.Decimal, error) {
	result, err := r.query.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("influx odometer query failed: %w", err)
	}
	defer result.Close()

	var found *decimal.Decimal
	for result.Next() {
		d, err := toDecimal(result.Record().Value())
		if err != nil {
			return nil, err
		}
		found = &d
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("error reading influx odometer results: %w", result.Err())
	}
	return found, nil
}

// lastDistanceQuery builds the Flux query. bikeID is a parsed UUID, so it
// cannot inject into the filter.
func lastDistanceQuery(bucket string, bikeID uuid.UUID, stop *time.Time) string {
	rangeClause := "range(start: 0)"
	if stop != nil {
		rangeClause = fmt.Sprintf("range(start: 0, stop: %s)", stop.Format(time.RFC3339))
	}
	return fmt.Sprintf(`
		from(bucket: %q)
		  |> %s
		  |> filter(fn: (r) => r._measurement == "odometer")
		  |> filter(fn: (r) => r.bike_id == "%s")
		  |> filter(fn: (r) => r._field == "distance")
		  |> last()
	`, bucket, rangeClause, bikeID.String())
}

func endOfDay(date time.Time) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint64:
		return decimal.NewFromUint64(n), nil
	case string:
		return decimal.NewFromString(n)
	}
	return decimal.Zero, fmt.Errorf("unexpected odometer value type %T", v)
}

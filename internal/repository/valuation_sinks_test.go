package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReValue/internal/domain/models"
)

type fakeDB struct {
	query string
	args  []any
	err   error
}

func (d *fakeDB) ExecContext(_ context.Context, q string, args ...any) (sql.Result, error) {
	d.query, d.args = q, args
	return nil, d.err
}

func (d *fakeDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (d *fakeDB) PingContext(context.Context) error { return d.err }

func sampleValuation() *models.Valuation {
	return &models.Valuation{
		ID:     "val-1",
		ItemID: "item-9",
		Attributes: models.ResolvedAttributes{
			Category:      models.CategoryLaptop,
			RawCategory:   "Laptop",
			Brand:         "HP",
			UsagePattern:  models.UsageHeavy,
			BuildQuality:  4,
			Condition:     3,
			OriginalPrice: 1200,
			UsedDuration:  2,
			UserLifespan:  5,
			ExpiryYears:   5,
		},
		Price:       640.5,
		Source:      models.SourceModel,
		Fingerprint: "abc",
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
	}
}

func TestValuationLogStore(t *testing.T) {
	db := &fakeDB{}
	log := newCHValuationLog(db, "revalue.valuations", nil)

	require.NoError(t, log.Store(context.Background(), sampleValuation()))
	assert.True(t, strings.HasPrefix(db.query, "INSERT INTO revalue.valuations ("))
	require.Len(t, db.args, 16)
	assert.Equal(t, "val-1", db.args[0])
	assert.Equal(t, time.Date(2024, 1, 2, 2, 4, 5, 0, time.UTC), db.args[2])
	assert.Equal(t, "Laptop", db.args[3])
	assert.Equal(t, "Heavy", db.args[6])
	assert.Equal(t, uint8(4), db.args[7])
	assert.Equal(t, 640.5, db.args[13])

	db.err = errors.New("conn reset")
	err := log.Store(context.Background(), sampleValuation())
	assert.ErrorContains(t, err, "val-1")
	assert.Error(t, log.Health(context.Background()))
}

func TestValuationLogRecentQuery(t *testing.T) {
	log := newCHValuationLog(&fakeDB{}, "v", nil)
	since := time.Unix(0, 0)

	q, args := log.recentQuery("", since, 10)
	assert.NotContains(t, q, "category = ?")
	assert.Equal(t, []any{since.UTC(), 10}, args)

	q, args = log.recentQuery("washing machine", since, 5)
	assert.Contains(t, q, "AND category = ?")
	assert.True(t, strings.HasSuffix(q, "ORDER BY created_at DESC LIMIT ?"))
	assert.Equal(t, "Washing Machine", args[1])

	_, err := log.Recent(context.Background(), "", since, 5)
	assert.Error(t, err)
}

func TestValuationLogSchema(t *testing.T) {
	log := newCHValuationLog(&fakeDB{}, "db.valuations", nil)
	stmts := log.SchemaStatements(90)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS db.valuations")
	assert.Contains(t, stmts[0], "INTERVAL 90 DAY")
	assert.NotContains(t, log.SchemaStatements(0)[0], "TTL")
	assert.Equal(t, "valuations", qualifiedTable("", "valuations"))
	assert.Equal(t, uint8(255), clampUint8(900))
	assert.Equal(t, uint8(0), clampUint8(-1))
}

type fakeProducer struct {
	topics []string
	keys   []string
	values []interface{}
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

func TestKafkaPublisherKeys(t *testing.T) {
	fp := &fakeProducer{}
	pub := &KafkaPublisher{producer: fp, valuationsTopic: "valuations", resultsTopic: "results"}

	v := sampleValuation()
	require.NoError(t, pub.PublishValuation(context.Background(), v))
	require.NoError(t, pub.PublishResult(context.Background(), &models.ValuationResultMessage{RequestID: "r-1", Status: "ok"}))

	assert.Equal(t, []string{"valuations", "results"}, fp.topics)
	assert.Equal(t, []string{"val-1", "r-1"}, fp.keys)
	assert.Same(t, v, fp.values[0])
	assert.NoError(t, pub.Close())
}

func TestKafkaPublisherDisabledTopics(t *testing.T) {
	fp := &fakeProducer{}
	pub := &KafkaPublisher{producer: fp}
	require.NoError(t, pub.PublishValuation(context.Background(), sampleValuation()))
	require.NoError(t, pub.PublishResult(context.Background(), &models.ValuationResultMessage{}))
	assert.Empty(t, fp.topics)
}

//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/adapter/govuk"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/config"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/observability"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-observations"

const feed = "date,areaType,areaCode,areaName,hospitalCases,newAdmissions,covidOccupiedMVBeds\n" +
	"2021-01-03,nhsTrust,BBB,Beta Hospital,8,1,0\n" +
	"2021-01-01,nhsTrust,BBB,Beta Hospital,7,2,0\n" +
	"2021-01-02,nhsTrust,BBB,Beta Hospital,9,4,3\n" +
	"2021-01-01,nhsTrust,AAA,Alpha Hospital,3,1,0\n" +
	"2021-01-01,nhsRegion,E12000001,North East,90,8,4\n"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("nhs-dashboard-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPipelinePublishesToKafka drives the full preparation path: the gov.uk
// client downloads from a local feed server, the pipeline filters the rows and
// the Kafka writer publishes every retained observation.
func TestPipelinePublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, feed)
	}))
	defer feedSrv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
	}

	writer := kafka.NewWriter(cfg, logger)
	defer writer.Close()

	client := govuk.NewClient(feedSrv.URL, filepath.Join(t.TempDir(), "covid-19.csv"), 10*time.Second, logger)
	p := pipeline.New(client, writer, logger, observability.NewMetricsForTesting())

	table, err := p.Prepare(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Beta Hospital"}, table.Trusts())
	require.Equal(t, 3, table.Len())

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	dates := make(map[string]bool)
	for range table.Len() {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}

		var obs domain.Observation
		require.NoError(t, json.Unmarshal(msg.Value, &obs))

		assert.Equal(t, "BBB", string(msg.Key))
		assert.Equal(t, "Beta Hospital", headers["trust"])
		assert.Equal(t, obs.Date.Format(domain.DateLayout), headers["date"])
		assert.Equal(t, "Beta Hospital", obs.Trust)
		dates[headers["date"]] = true
	}

	assert.Equal(t, map[string]bool{
		"2021-01-01": true,
		"2021-01-02": true,
		"2021-01-03": true,
	}, dates)
}

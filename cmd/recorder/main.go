package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/history"
	"github.com/chenzhangda16/web3-txpath/internal/txpath/out"
)

type Handler struct {
	st *history.Store
}

func (h *Handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *Handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *Handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		var env out.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			log.Printf("[recorder] bad envelope: offset=%d err=%v", msg.Offset, err)
			sess.MarkMessage(msg, "")
			continue
		}

		switch env.Type {
		case out.TypeTraceResult:
			var ev out.TraceEvent
			if err := json.Unmarshal(env.Data, &ev); err != nil {
				log.Printf("[recorder] bad trace_result: offset=%d err=%v", msg.Offset, err)
				sess.MarkMessage(msg, "")
				continue
			}
			if err := h.st.InsertTrace(ctx, ev); err != nil {
				log.Printf("[recorder] insert failed: source=%s target=%s err=%v", ev.Source, ev.Target, err)
				// not marked: redelivered on the next claim (at least once)
				continue
			}
			sess.MarkMessage(msg, "")
		default:
			sess.MarkMessage(msg, "")
		}
	}
	return nil
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		brokers = flag.String("brokers", "127.0.0.1:9092", "kafka brokers, comma separated")
		topic   = flag.String("topic", "txpath.traces", "trace result topic")
		group   = flag.String("group", "txpath.recorder", "consumer group")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := history.NewFromEnv()
	if err != nil {
		log.Fatalf("pg init failed: %v", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema failed: %v", err)
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	cg, err := sarama.NewConsumerGroup(strings.Split(*brokers, ","), *group, cfg)
	if err != nil {
		log.Fatalf("consumer group init failed: %v", err)
	}
	defer func() { _ = cg.Close() }()

	h := &Handler{st: st}

	log.Printf("[recorder] start: topic=%s group=%s brokers=%s", *topic, *group, *brokers)

	for ctx.Err() == nil {
		if err := cg.Consume(ctx, []string{*topic}, h); err != nil {
			log.Printf("[recorder] consume err: %v", err)
			time.Sleep(300 * time.Millisecond)
		}
	}
	log.Printf("[recorder] exit: %v", ctx.Err())
}

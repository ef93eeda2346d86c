package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"strings"

	"github.com/IBM/sarama"

	"github.com/chenzhangda16/web3-txpath/internal/txpath/out"
)

type Handler struct{}

func (Handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (Handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }
func (Handler) ConsumeClaim(
	s sarama.ConsumerGroupSession,
	c sarama.ConsumerGroupClaim,
) error {
	for msg := range c.Messages() {
		var env out.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			log.Printf("bad envelope offset=%d: %v", msg.Offset, err)
			s.MarkMessage(msg, "")
			continue
		}
		log.Printf(
			"type=%s ts=%d key=%s partition=%d offset=%d data=%s",
			env.Type,
			env.TS,
			string(msg.Key),
			msg.Partition,
			msg.Offset,
			string(env.Data),
		)
		s.MarkMessage(msg, "")
	}
	return nil
}

func main() {
	var (
		brokers = flag.String("brokers", "localhost:9092", "kafka brokers, comma separated")
		topic   = flag.String("topic", "txpath.traces", "trace result topic")
		group   = flag.String("group", "txpath-test_tools", "consumer group")
	)
	flag.Parse()

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	cg, err := sarama.NewConsumerGroup(strings.Split(*brokers, ","), *group, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cg.Close()

	for {
		if err := cg.Consume(context.Background(), []string{*topic}, Handler{}); err != nil {
			log.Fatal(err)
		}
	}
}

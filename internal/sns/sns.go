package sns

import (
	"sync"

	"github.com/kosmosec/portreport/internal/model"
)

// Handler consumes one message. Handlers run synchronously in the
// publisher's goroutine, in subscription order.
type Handler func(msg model.Event)

type SNS struct {
	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	name      string
	consumers []consumer
	closed    bool
}

type consumer struct {
	name    string
	handler Handler
}

func New() *SNS {
	return &SNS{
		topics: make(map[string]*topic),
	}
}

func (s *SNS) CreateTopic(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[name]; ok {
		return
	}
	s.topics[name] = &topic{name: name}
}

// AddConsumer subscribes handler to topic, creating the topic if needed.
func (s *SNS) AddConsumer(topicName string, consumerName string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[topicName]
	if !ok {
		t = &topic{name: topicName}
		s.topics[topicName] = t
	}
	t.consumers = append(t.consumers, consumer{name: consumerName, handler: handler})
}

// SendMessage delivers msg to every consumer of topic. Messages sent to a
// closed or unknown topic are dropped.
func (s *SNS) SendMessage(topicName string, msg model.Event) {
	s.mu.Lock()
	t, ok := s.topics[topicName]
	if !ok || t.closed {
		s.mu.Unlock()
		return
	}
	consumers := append([]consumer(nil), t.consumers...)
	s.mu.Unlock()

	for _, c := range consumers {
		c.handler(msg)
	}
}

func (s *SNS) Consumers(topicName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[topicName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(t.consumers))
	for _, c := range t.consumers {
		names = append(names, c.name)
	}
	return names
}

func (s *SNS) CloseTopic(topicName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.topics[topicName]; ok {
		t.closed = true
	}
}

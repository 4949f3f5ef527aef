// Package mqtt publishes decoded meter records to a broker, one JSON
// envelope per frame plus retained availability state.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"example.com/tigate/internal/teleinfo"
)

type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	QoS            byte
	Retain         bool
}

// Envelope is the JSON payload published per decoded frame. EnvelopeID is
// unique per publication so consumers can deduplicate after reconnects.
type Envelope struct {
	EnvelopeID string           `json:"envelopeId"`
	Ts         time.Time        `json:"ts"`
	Source     string           `json:"source"`
	Record     *teleinfo.Record `json:"record"`
}

type Publisher struct {
	inner paho.Client
	opts  Options
}

func NewPublisher(opts Options) (*Publisher, error) {
	if opts.ClientID == "" {
		opts.ClientID = "tigate-" + uuid.NewString()[:8]
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "tigate"
	}
	if opts.KeepAlive == 0 {
		opts.KeepAlive = 30 * time.Second
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	p := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetKeepAlive(opts.KeepAlive).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetWill(opts.TopicPrefix+"/state", "offline", opts.QoS, true)
	if opts.Username != "" {
		p.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		p.SetPassword(opts.Password)
	}
	pub := &Publisher{opts: opts}
	pub.inner = paho.NewClient(p)
	tok := pub.inner.Connect()
	if !tok.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout after %s", opts.ConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}
	if err := pub.publishState("online"); err != nil {
		pub.inner.Disconnect(0)
		return nil, err
	}
	return pub, nil
}

// PublishRecord sends one decoded frame under <prefix>/frames.
func (p *Publisher) PublishRecord(source string, rec *teleinfo.Record) error {
	b, err := json.Marshal(NewEnvelope(source, rec))
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	tok := p.inner.Publish(p.opts.TopicPrefix+"/frames", p.opts.QoS, p.opts.Retain, b)
	tok.Wait()
	return tok.Error()
}

func (p *Publisher) publishState(state string) error {
	tok := p.inner.Publish(p.opts.TopicPrefix+"/state", p.opts.QoS, true, state)
	tok.Wait()
	return tok.Error()
}

func (p *Publisher) Close() {
	_ = p.publishState("offline")
	p.inner.Disconnect(250)
}

// NewEnvelope stamps a record for publication.
func NewEnvelope(source string, rec *teleinfo.Record) Envelope {
	return Envelope{
		EnvelopeID: uuid.NewString(),
		Ts:         time.Now().UTC(),
		Source:     source,
		Record:     rec,
	}
}

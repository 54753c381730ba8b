// Package asr is the client for the external streaming speech recognizer.
//
// The recognizer speaks one bidirectional gRPC method. Requests are
// google.protobuf.Any values: the first wraps a Struct recognition config,
// every later one wraps a BytesValue of LINEAR16 audio. Half-closing the send
// side marks end of input. Responses are Structs of the form
// {"transcript": string, "is_final": bool}, each carrying the cumulative
// hypothesis for the whole session.
package asr

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "murmur.asr.v1.Recognizer"
	methodName  = "StreamingRecognize"

	// StreamingRecognizeMethod is the full gRPC method path.
	StreamingRecognizeMethod = "/" + ServiceName + "/" + methodName

	EncodingLinear16 = "LINEAR16"
)

var streamDesc = grpc.StreamDesc{
	StreamName:    methodName,
	ServerStreams: true,
	ClientStreams: true,
}

// SpeechPhrase is one vocabulary boost phrase in request-ready form.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}

// RecognitionConfig is the first message of every stream.
type RecognitionConfig struct {
	LanguageCode         string
	Model                string
	SampleRateHertz      int
	Encoding             string
	AutomaticPunctuation bool
	InterimResults       bool
	Phrases              []SpeechPhrase
}

// Update is one recognizer hypothesis.
type Update struct {
	Text    string
	IsFinal bool
}

// Request is a decoded client message, as seen by a recognizer server.
type Request struct {
	Config *RecognitionConfig
	Audio  []byte
}

// RecognizerServer is implemented by recognizer backends.
type RecognizerServer interface {
	StreamingRecognize(grpc.BidiStreamingServer[anypb.Any, structpb.Struct]) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecognizerServer)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    methodName,
		ServerStreams: true,
		ClientStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			return srv.(RecognizerServer).StreamingRecognize(&grpc.GenericServerStream[anypb.Any, structpb.Struct]{ServerStream: stream})
		},
	}},
}

// RegisterRecognizerServer attaches srv to a gRPC server.
func RegisterRecognizerServer(s grpc.ServiceRegistrar, srv RecognizerServer) {
	s.RegisterService(&serviceDesc, srv)
}

func encodeConfig(cfg RecognitionConfig) (*anypb.Any, error) {
	phrases := make([]any, 0, len(cfg.Phrases))
	for _, phrase := range cfg.Phrases {
		text := strings.TrimSpace(phrase.Phrase)
		if text == "" {
			continue
		}
		phrases = append(phrases, map[string]any{
			"phrase": text,
			"boost":  float64(phrase.Boost),
		})
	}

	body, err := structpb.NewStruct(map[string]any{
		"language_code":         cfg.LanguageCode,
		"model":                 cfg.Model,
		"sample_rate_hertz":     cfg.SampleRateHertz,
		"encoding":              cfg.Encoding,
		"automatic_punctuation": cfg.AutomaticPunctuation,
		"interim_results":       cfg.InterimResults,
		"phrases":               phrases,
	})
	if err != nil {
		return nil, fmt.Errorf("encode recognition config: %w", err)
	}
	return anypb.New(body)
}

func encodeAudio(pcm []byte) (*anypb.Any, error) {
	return anypb.New(wrapperspb.Bytes(pcm))
}

func decodeUpdate(msg *structpb.Struct) Update {
	fields := msg.GetFields()
	return Update{
		Text:    fields["transcript"].GetStringValue(),
		IsFinal: fields["is_final"].GetBoolValue(),
	}
}

// EncodeUpdate builds the response message for an update.
func EncodeUpdate(update Update) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"transcript": structpb.NewStringValue(update.Text),
		"is_final":   structpb.NewBoolValue(update.IsFinal),
	}}
}

// DecodeRequest unpacks one client message.
func DecodeRequest(msg *anypb.Any) (Request, error) {
	if msg == nil {
		return Request{}, errors.New("empty request")
	}

	switch {
	case msg.MessageIs(&wrapperspb.BytesValue{}):
		audio := &wrapperspb.BytesValue{}
		if err := msg.UnmarshalTo(audio); err != nil {
			return Request{}, fmt.Errorf("decode audio: %w", err)
		}
		return Request{Audio: audio.GetValue()}, nil
	case msg.MessageIs(&structpb.Struct{}):
		body := &structpb.Struct{}
		if err := msg.UnmarshalTo(body); err != nil {
			return Request{}, fmt.Errorf("decode config: %w", err)
		}
		cfg := configFromStruct(body)
		return Request{Config: &cfg}, nil
	default:
		return Request{}, fmt.Errorf("unsupported request type %q", msg.GetTypeUrl())
	}
}

func configFromStruct(body *structpb.Struct) RecognitionConfig {
	fields := body.GetFields()
	cfg := RecognitionConfig{
		LanguageCode:         fields["language_code"].GetStringValue(),
		Model:                fields["model"].GetStringValue(),
		SampleRateHertz:      int(fields["sample_rate_hertz"].GetNumberValue()),
		Encoding:             fields["encoding"].GetStringValue(),
		AutomaticPunctuation: fields["automatic_punctuation"].GetBoolValue(),
		InterimResults:       fields["interim_results"].GetBoolValue(),
	}
	for _, item := range fields["phrases"].GetListValue().GetValues() {
		entry := item.GetStructValue().GetFields()
		cfg.Phrases = append(cfg.Phrases, SpeechPhrase{
			Phrase: entry["phrase"].GetStringValue(),
			Boost:  float32(entry["boost"].GetNumberValue()),
		})
	}
	return cfg
}

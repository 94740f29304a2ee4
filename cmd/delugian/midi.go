package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"delugian/internal/gui/config"
	"delugian/internal/logger"
	"delugian/internal/midi"
)

func runPorts(args []string) {
	fs := flag.NewFlagSet("ports", flag.ExitOnError)
	outs := fs.Bool("outs", false, "出力ポートを表示")
	asJSON := fs.Bool("json", false, "JSON で出力")
	fs.Usage = portsUsage
	_ = fs.Parse(args)

	mgr := midi.NewManager(midi.NewDriver)
	defer mgr.Close()

	dir := midi.Input
	if *outs {
		dir = midi.Output
	}
	ports := mgr.ListPorts(dir)
	if *asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(ports)
		return
	}
	if len(ports) == 0 {
		fmt.Println("(ポートなし)")
		return
	}
	for _, i := range sortedKeys(ports) {
		fmt.Printf("%d: %s\n", i, ports[i])
	}
}

func runMonitor(args []string) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	input := fs.String("input", config.DefaultPort, "入力ポート名（完全一致）")
	output := fs.String("output", config.DefaultPort, "出力ポート名（完全一致）")
	direction := fs.String("direction", "both", "both|input|output")
	queue := fs.Int("queue", 256, "受信キュー長")
	overflow := fs.String("overflow", "drop-newest", "drop-newest|drop-oldest")
	configPath := fs.String("config", "", "JSON設定ファイルへのパス")
	debug := fs.Bool("debug", false, "デバッグログを有効化")
	fs.Usage = monitorUsage
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}
	// フラグの明示指定のみ JSON の値を上書き
	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	applyMidiFlags(&cfg.MIDI, setFlags, *input, *output, *direction, *queue, *overflow)
	if *debug {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Development = true
	if err := cfg.Normalize(); err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	policy, _ := midi.ParseOverflowPolicy(cfg.MIDI.Overflow)
	fwd := midi.NewForwarder(newLineEmitter(os.Stdout), lg.Named("forwarder"), cfg.MIDI.QueueSize, policy)
	mgr := midi.NewManager(midi.NewDriver, midi.WithLogger(lg.Named("midi")), midi.WithHandler(fwd.Enqueue))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fwd.Start(ctx)

	if err := mgr.OpenDirection(cfg.MIDI.Direction, cfg.MIDI.InputPort, cfg.MIDI.OutputPort); err != nil {
		lg.Error("failed to open midi connection", zap.Error(err))
	}
	if _, ok := mgr.InputName(); !ok {
		fwd.Stop()
		_ = mgr.Close()
		lg.Fatal("no input connection; nothing to monitor", zap.String("input", cfg.MIDI.InputPort))
	}

	lg.Info("monitoring", zap.String("input", cfg.MIDI.InputPort), zap.String("direction", cfg.MIDI.Direction))
	<-ctx.Done()

	fwd.Stop()
	if err := mgr.Close(); err != nil {
		lg.Warn("failed to close midi", zap.Error(err))
	}
	lg.Info("stopped", zap.Uint64("dropped", fwd.Dropped()))
}

func runSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	output := fs.String("output", config.DefaultPort, "出力ポート名（完全一致）")
	fs.Usage = sendUsage
	_ = fs.Parse(args)

	data, err := parseHexBytes(fs.Args())
	if err != nil {
		log.Fatalf("送信データの解析に失敗: %v", err)
	}
	mgr := midi.NewManager(midi.NewDriver)
	defer mgr.Close()
	if err := mgr.OpenOutput(*output); err != nil {
		log.Fatalf("出力ポートのオープンに失敗: %v", err)
	}
	if err := mgr.Send(data); err != nil {
		log.Fatalf("送信失敗: %v", err)
	}
	log.Printf("送信: % X -> %s", data, *output)
}

func loadConfig(p string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if strings.TrimSpace(p) != "" {
		cfg, err = config.LoadFrom(p)
	} else {
		cfg, err = config.Load()
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyMidiFlags は明示指定されたフラグだけを mc に反映する。
func applyMidiFlags(mc *config.MidiConfig, set map[string]bool, input, output, direction string, queue int, overflow string) {
	if set["input"] {
		mc.InputPort = input
	}
	if set["output"] {
		mc.OutputPort = output
	}
	if set["direction"] {
		mc.Direction = direction
	}
	if set["queue"] {
		mc.QueueSize = queue
	}
	if set["overflow"] {
		mc.Overflow = overflow
	}
}

// parseHexBytes は "90 3C 7F" や "0x90,0x3c" 形式を解析する。
func parseHexBytes(args []string) ([]byte, error) {
	var out []byte
	for _, a := range args {
		for _, tok := range strings.FieldsFunc(a, func(r rune) bool { return r == ',' || r == ' ' }) {
			tok = strings.TrimPrefix(strings.ToLower(tok), "0x")
			v, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("不正なバイト %q: %w", tok, err)
			}
			out = append(out, byte(v))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("送信するバイトがありません")
	}
	return out, nil
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// lineEmitter はイベントを1行1JSONで書き出す。
type lineEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineEmitter(w io.Writer) *lineEmitter {
	return &lineEmitter{enc: json.NewEncoder(w)}
}

func (e *lineEmitter) Emit(event string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(struct {
		Event   string `json:"event"`
		Payload any    `json:"payload"`
	}{event, payload})
}

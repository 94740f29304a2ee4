package main

import (
	"fmt"
	"log"
	"os"
)

// これらは ldflags で上書き可能:
// go build -ldflags "-X main.version=1.2.3 -X main.commit=abcd123 -X main.date=2025-08-12T01:23:45Z"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "ports", "ls", "list":
		runPorts(os.Args[2:])
	case "monitor":
		runMonitor(os.Args[2:])
	case "send":
		runSend(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		if len(os.Args) > 2 {
			switch os.Args[2] {
			case "ports":
				portsUsage()
			case "monitor":
				monitorUsage()
			case "send":
				sendUsage()
			default:
				usage()
			}
		} else {
			usage()
		}
	case "-v", "--version":
		printVersion()
	default:
		log.Printf("不明なサブコマンド: %s", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("delugian - Deluge MIDI ブリッジ CLI")
	fmt.Println("")
	fmt.Println("使用方法:")
	fmt.Println("  delugian <command> [options]")
	fmt.Println("")
	fmt.Println("コマンド:")
	fmt.Println("  ports     MIDI ポート一覧を表示")
	fmt.Println("  monitor   入力/出力ポートを開き、受信メッセージを JSON 行で出力")
	fmt.Println("  send      出力ポートへ生バイトを送信")
	fmt.Println("  version   バージョン情報を表示")
	fmt.Println("")
	fmt.Println("例:")
	fmt.Println("  delugian ports -json")
	fmt.Println("  delugian monitor -input 'Deluge Port 3' -output 'Deluge Port 3'")
	fmt.Println("  delugian send -output 'Deluge Port 3' 90 3C 7F")
	fmt.Println("")
	fmt.Println("注: ネイティブMIDI入出力はビルドタグ 'midi_native' が必要です。")
}

func printVersion() {
	fmt.Printf("delugian %s (commit %s, built %s)\n", version, commit, date)
}

func portsUsage() {
	fmt.Fprintln(os.Stderr, "Usage: delugian ports [-outs] [-json]")
	fmt.Fprintln(os.Stderr, "\n説明: 利用可能な MIDI ポートを「番号: 名前」で表示します。")
	fmt.Fprintln(os.Stderr, "\n主なオプション:")
	fmt.Fprintln(os.Stderr, "  -outs      出力ポートを表示（既定は入力）")
	fmt.Fprintln(os.Stderr, "  -json      JSON で出力")
}

func monitorUsage() {
	fmt.Fprintln(os.Stderr, "Usage: delugian monitor [options]")
	fmt.Fprintln(os.Stderr, "\n説明: 設定されたポート名で入力/出力を開き、受信した MIDI を midi_message イベントとして標準出力へ流します。")
	fmt.Fprintln(os.Stderr, "\n主なオプション:")
	fmt.Fprintln(os.Stderr, "  -input      入力ポート名（完全一致）")
	fmt.Fprintln(os.Stderr, "  -output     出力ポート名（完全一致）")
	fmt.Fprintln(os.Stderr, "  -direction  both|input|output")
	fmt.Fprintln(os.Stderr, "  -queue      受信キュー長")
	fmt.Fprintln(os.Stderr, "  -overflow   キュー満杯時: drop-newest|drop-oldest")
	fmt.Fprintln(os.Stderr, "  -config     JSON設定ファイルパス（省略時はユーザー設定）")
	fmt.Fprintln(os.Stderr, "  -debug      デバッグログを有効化")
}

func sendUsage() {
	fmt.Fprintln(os.Stderr, "Usage: delugian send [-output NAME] <hex bytes...>")
	fmt.Fprintln(os.Stderr, "\n説明: 出力ポートへ生バイトを送信します。内容は検証しません。")
	fmt.Fprintln(os.Stderr, "\n例: delugian send -output 'Deluge Port 3' 90 3C 7F")
}

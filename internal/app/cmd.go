package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandBuild はサイトのビルドを1回実行することを示す。
	CommandBuild Command = "build"
	// CommandCheck はフィード定義の検証のみを実行することを示す。
	// フィードは取得せず、定義ファイルとURLの妥当性を確認する。
	CommandCheck Command = "check"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandBuildを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandBuild
	}

	switch args[0] {
	case "check":
		return CommandCheck
	case "build":
		return CommandBuild
	default:
		return CommandBuild
	}
}

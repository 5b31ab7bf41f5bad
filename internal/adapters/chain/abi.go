package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Hand-maintained ABI fragments for the three Takepile contracts the keeper
// talks to. Only the events and methods the keeper uses are declared; any
// other log on the same contracts simply fails to decode and is skipped.

const pileTokenABIJSON = `[
  {"type":"event","name":"IncreasePosition","anonymous":false,"inputs":[
    {"name":"who","type":"address","indexed":false},
    {"name":"symbol","type":"string","indexed":false},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"newAmount","type":"uint256","indexed":false},
    {"name":"isLong","type":"bool","indexed":false},
    {"name":"price","type":"uint256","indexed":false},
    {"name":"fees","type":"uint256","indexed":false}]},
  {"type":"event","name":"DecreasePosition","anonymous":false,"inputs":[
    {"name":"who","type":"address","indexed":false},
    {"name":"symbol","type":"string","indexed":false},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"newAmount","type":"uint256","indexed":false},
    {"name":"isLong","type":"bool","indexed":false},
    {"name":"price","type":"uint256","indexed":false},
    {"name":"reward","type":"uint256","indexed":false},
    {"name":"fees","type":"uint256","indexed":false}]},
  {"type":"event","name":"LimitOrderSubmitted","anonymous":false,"inputs":[
    {"name":"who","type":"address","indexed":false},
    {"name":"symbol","type":"string","indexed":false},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"collateral","type":"uint256","indexed":false},
    {"name":"isLong","type":"bool","indexed":false},
    {"name":"limitPrice","type":"uint256","indexed":false},
    {"name":"stopLoss","type":"uint256","indexed":false},
    {"name":"index","type":"uint256","indexed":false},
    {"name":"deadline","type":"uint256","indexed":false}]},
  {"type":"event","name":"LimitOrderCancelled","anonymous":false,"inputs":[
    {"name":"who","type":"address","indexed":false},
    {"name":"symbol","type":"string","indexed":false},
    {"name":"index","type":"uint256","indexed":false}]},
  {"type":"event","name":"LimitOrderTriggered","anonymous":false,"inputs":[
    {"name":"who","type":"address","indexed":false},
    {"name":"symbol","type":"string","indexed":false},
    {"name":"index","type":"uint256","indexed":false}]},
  {"type":"function","name":"getHealthFactor","stateMutability":"view","inputs":[
    {"name":"who","type":"address"},{"name":"symbol","type":"string"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getLatestPrice","stateMutability":"view","inputs":[
    {"name":"symbol","type":"string"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"liquidate","stateMutability":"nonpayable","inputs":[
    {"name":"who","type":"address"},{"name":"symbol","type":"string"}],"outputs":[]},
  {"type":"function","name":"triggerLimitOrder","stateMutability":"nonpayable","inputs":[
    {"name":"who","type":"address"},{"name":"symbol","type":"string"},
    {"name":"index","type":"uint256"}],"outputs":[]}
]`

const driverABIJSON = `[
  {"type":"event","name":"TakepileCreated","anonymous":false,"inputs":[
    {"name":"pile","type":"address","indexed":false},
    {"name":"name","type":"string","indexed":false},
    {"name":"symbol","type":"string","indexed":false}]},
  {"type":"function","name":"liquidationPass","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"address"}]}
]`

const passABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
    {"name":"owner","type":"address"}],
    "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	pileABI   = mustABI(pileTokenABIJSON)
	driverABI = mustABI(driverABIJSON)
	passABI   = mustABI(passABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

package ethrpc

// Contract ABI fragments, transcribed from the deployed UntilThenV1 and
// GiftNFT artifacts. Only the surface the workflow consumes is included.

const untilThenABI = `[
  {"type":"function","name":"createGift","stateMutability":"payable",
   "inputs":[
     {"name":"receiver","type":"address"},
     {"name":"releaseTimestamp","type":"uint256"},
     {"name":"contentHash","type":"string"},
     {"name":"yield","type":"bool"},
     {"name":"erc20Amount","type":"uint256"}],
   "outputs":[{"name":"giftId","type":"uint256"}]},
  {"type":"function","name":"claimGift","stateMutability":"nonpayable",
   "inputs":[{"name":"giftId","type":"uint256"}],
   "outputs":[{"name":"nftId","type":"uint256"}]},
  {"type":"function","name":"getGiftById","stateMutability":"view",
   "inputs":[{"name":"id","type":"uint256"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"id","type":"uint256"},
     {"name":"amount","type":"uint256"},
     {"name":"releaseTimestamp","type":"uint256"},
     {"name":"nftClaimedId","type":"uint256"},
     {"name":"status","type":"uint8"},
     {"name":"sender","type":"address"},
     {"name":"receiver","type":"address"},
     {"name":"isYield","type":"bool"},
     {"name":"linkYield","type":"bool"},
     {"name":"contentHash","type":"string"}]}]},
  {"type":"function","name":"getReceiverGiftsIds","stateMutability":"view",
   "inputs":[{"name":"receiver","type":"address"}],
   "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"getSenderGiftsIds","stateMutability":"view",
   "inputs":[{"name":"sender","type":"address"}],
   "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"event","name":"GiftCreated","anonymous":false,
   "inputs":[
     {"name":"sender","type":"address","indexed":true},
     {"name":"receiver","type":"address","indexed":true},
     {"name":"giftId","type":"uint256","indexed":false}]},
  {"type":"event","name":"GiftClaimed","anonymous":false,
   "inputs":[
     {"name":"receiver","type":"address","indexed":true},
     {"name":"giftId","type":"uint256","indexed":true},
     {"name":"giftAmountToClaim","type":"uint256","indexed":false},
     {"name":"nftId","type":"uint256","indexed":false},
     {"name":"requestId","type":"bytes32","indexed":false}]}
]`

const giftNFTABI = `[
  {"type":"function","name":"tokenURI","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"string"}]},
  {"type":"event","name":"ContentHashUpdated","anonymous":false,
   "inputs":[
     {"name":"tokenId","type":"uint256","indexed":true},
     {"name":"publicContentHash","type":"string","indexed":false}]}
]`

const erc20ABI = `[
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[
     {"name":"owner","type":"address"},
     {"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[
     {"name":"spender","type":"address"},
     {"name":"value","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

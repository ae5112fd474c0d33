package pages

var Index = `
<!DOCTYPE html>
<html>
<head>
    <title>lyricist</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
        }
        code {
            background: #f4f4f4;
            padding: 2px 4px;
        }
    </style>
</head>
<body>
    <h1>lyricist</h1>
    <p>Search an artist's catalog for songs containing a lyric.</p>
    <ul>
        <li><code>GET /api/search?artist=NAME&amp;lyric=TEXT</code> &mdash; matching songs in catalog order. Repeat <code>lyric</code> for multiple queries, add <code>all=true</code> to require every query.</li>
        <li><code>GET /api/history/searches?limit=N</code> &mdash; recent searches.</li>
        <li><code>GET /api/history/fetches?limit=N</code> &mdash; recent corpus builds.</li>
        <li><code>GET /api/history/artists?limit=N</code> &mdash; most searched artists.</li>
        <li><code>DELETE /api/cache/:artist</code> &mdash; drop an artist's cache entry so the next search re-fetches.</li>
    </ul>
</body>
</html>`
